package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studai/backend/core"
	"github.com/studai/backend/core/session"
)

type sessionApi struct {
	gate    *session.Gate
	auth    session.Authenticator
	uploads session.UploadRegistry
}

func registerSessionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	gate *session.Gate,
	auth session.Authenticator,
	uploads session.UploadRegistry,
) {
	api := sessionApi{
		gate:    gate,
		auth:    auth,
		uploads: uploads,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	// TODO: rate limit `/login` & `/signup`
	ag.POST("/signup", api.signup)
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout, jwt)

	// authed endpoints
	sg := g.Group("/session", jwt)
	sg.GET("", api.retrieve)
	sg.POST("/theme", api.toggleTheme)

	// student-only endpoints
	stg := sg.Group("", studentMiddleware())
	stg.POST("/onboarding", api.completeOnboarding)
	stg.POST("/uploads", api.registerUpload)
	stg.GET("/uploads", api.queryUploads)
	stg.POST("/weekly-test/start", api.startWeeklyTest)
	stg.POST("/weekly-test", api.submitWeeklyTest)
}

// Handlers

func (api *sessionApi) signup(ctx echo.Context) error {
	var data session.SignupCredentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignupCredentials")
	}

	sess, err := api.auth.Signup(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return api.establish(ctx, sess, http.StatusCreated)
}

func (api *sessionApi) login(ctx echo.Context) error {
	var data session.LoginCredentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginCredentials")
	}

	sess, err := api.auth.Login(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return api.establish(ctx, sess, http.StatusOK)
}

// establish feeds the authenticated session into the gate and returns a
// signed token alongside the resolved state.
func (api *sessionApi) establish(ctx echo.Context, sess *session.Session, status int) error {
	state, err := api.gate.Dispatch(ctx.Request().Context(), session.SignedIn{Session: sess})
	if err != nil {
		return err
	}

	token, err := GenerateToken(GetSessionClaims(sess))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(status, AuthResponse{
		Token:   token,
		State:   state,
		Session: newSessionResponse(sess),
	})
}

func (api *sessionApi) logout(ctx echo.Context) error {
	state, err := api.gate.Dispatch(ctx.Request().Context(), session.LoggedOut{})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, StateResponse{State: state})
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	sess, err := api.gateSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SessionStateResponse{
		State:   api.gate.State(),
		Session: newSessionResponse(sess),
	})
}

func (api *sessionApi) completeOnboarding(ctx echo.Context) error {
	if _, err := api.gateSession(ctx); err != nil {
		return err
	}

	var profile session.Profile
	if err := ctx.Bind(&profile); err != nil {
		return errors.Wrap(err, "binding to Profile")
	}

	state, err := api.gate.Dispatch(ctx.Request().Context(), session.OnboardingCompleted{Profile: profile})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, StateResponse{State: state})
}

func (api *sessionApi) registerUpload(ctx echo.Context) error {
	sess, err := api.gateSession(ctx)
	if err != nil {
		return err
	}

	art := session.Artifact{SessionID: sess.ID}
	if file, fErr := ctx.FormFile("file"); fErr == nil {
		art.Name = core.CleanString(file.Filename)
		art.Size = file.Size
		if art.Name == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "a file name is required"})
		}
	} else {
		var data UploadRequest
		if err = ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to UploadRequest")
		}
		if err = data.Validate(); err != nil {
			return err
		}
		art.Name = data.Name
		art.Size = data.Size
	}

	art, err = api.uploads.RegisterArtifact(ctx.Request().Context(), art)
	if err != nil {
		return errors.Wrap(err, "registering artifact")
	}
	return ctx.JSON(http.StatusCreated, art)
}

func (api *sessionApi) queryUploads(ctx echo.Context) error {
	sess, err := api.gateSession(ctx)
	if err != nil {
		return err
	}

	arts, err := api.uploads.QueryArtifacts(ctx.Request().Context(), sess.ID)
	if err != nil {
		return errors.Wrap(err, "querying artifacts")
	}
	if arts == nil {
		arts = []session.Artifact{}
	}
	return ctx.JSON(http.StatusOK, arts)
}

func (api *sessionApi) startWeeklyTest(ctx echo.Context) error {
	if _, err := api.gateSession(ctx); err != nil {
		return err
	}

	remaining, err := api.gate.StartWeeklyTest()
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, WeeklyTestResponse{RemainingSeconds: int(remaining / time.Second)})
}

func (api *sessionApi) submitWeeklyTest(ctx echo.Context) error {
	if _, err := api.gateSession(ctx); err != nil {
		return err
	}

	state, err := api.gate.Dispatch(ctx.Request().Context(), session.WeeklyTestSubmitted{})
	if err != nil {
		return err
	}
	sess := api.gate.Session()
	return ctx.JSON(http.StatusOK, SessionStateResponse{
		State:   state,
		Session: newSessionResponse(sess),
	})
}

func (api *sessionApi) toggleTheme(ctx echo.Context) error {
	if _, err := api.gateSession(ctx); err != nil {
		return err
	}

	state, err := api.gate.Dispatch(ctx.Request().Context(), session.ThemeToggled{})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ThemeResponse{
		Theme: api.gate.Session().Theme,
		State: state,
	})
}

// gateSession resolves the gate's active session and checks it against the
// caller's token; a token for a torn-down or replaced session is refused.
func (api *sessionApi) gateSession(ctx echo.Context) (*session.Session, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting context claims")
	}

	sess := api.gate.Session()
	if sess == nil || sess.ID != claims.Subject {
		return nil, errUnauthorized
	}
	return sess, nil
}
