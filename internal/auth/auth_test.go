package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/streamwise/internal/auth"
	"github.com/okian/streamwise/internal/domain/model"
)

type fakeLookup map[string]model.User

func (f fakeLookup) GetUser(_ context.Context, id string) (model.User, error) {
	u, ok := f[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

type failingLookup struct{ err error }

func (f failingLookup) GetUser(context.Context, string) (model.User, error) {
	return model.User{}, f.err
}

func TestServiceTokens(t *testing.T) {
	Convey("Given a token service", t, func() {
		svc := auth.NewService("secret", auth.WithIssuer("test"), auth.WithTTL(time.Minute))

		Convey("When a token is issued and parsed", func() {
			tok, exp, err := svc.Issue("s1", model.RoleStudent)
			So(err, ShouldBeNil)
			claims, err := svc.Parse(tok)

			Convey("Then the claims round-trip", func() {
				So(err, ShouldBeNil)
				So(claims.Sub, ShouldEqual, "s1")
				So(claims.Role, ShouldEqual, model.RoleStudent)
				So(exp, ShouldHappenAfter, time.Now())
			})
		})

		Convey("When a token is signed with another secret", func() {
			other := auth.NewService("other", auth.WithIssuer("test"))
			tok, _, _ := other.Issue("s1", model.RoleAdmin)
			_, err := svc.Parse(tok)
			So(errors.Is(err, auth.ErrInvalidToken), ShouldBeTrue)
		})

		Convey("When the issuer differs", func() {
			other := auth.NewService("secret", auth.WithIssuer("someone-else"))
			tok, _, _ := other.Issue("s1", model.RoleAdmin)
			_, err := svc.Parse(tok)
			So(errors.Is(err, auth.ErrInvalidToken), ShouldBeTrue)
		})

		Convey("When the token has expired", func() {
			past := auth.NewService("secret", auth.WithIssuer("test"), auth.WithTTL(time.Minute),
				auth.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }))
			tok, _, _ := past.Issue("s1", model.RoleStudent)
			_, err := svc.Parse(tok)
			So(errors.Is(err, auth.ErrInvalidToken), ShouldBeTrue)
		})

		Convey("When the token uses the none algorithm", func() {
			tok, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "s1", "iss": "test"}).
				SignedString(jwt.UnsafeAllowNoneSignatureType)
			_, err := svc.Parse(tok)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestMiddleware(t *testing.T) {
	svc := auth.NewService("secret")
	lookup := fakeLookup{"promoted": {ID: "promoted", Role: model.RoleSchool}}

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		_, _ = w.Write([]byte(id.Subject + ":" + string(id.Role)))
	})

	serve := func(h http.Handler, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/students/s1", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	Convey("Given the auth middleware", t, func() {
		h := auth.Middleware(svc, lookup)(echo)

		Convey("When no token is sent", func() {
			So(serve(h, "").Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When a garbage token is sent", func() {
			So(serve(h, "not-a-jwt").Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("When an unknown subject presents a valid token", func() {
			tok, _, _ := svc.Issue("s1", model.RoleStudent)
			rec := serve(h, tok)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, "s1:student")
		})

		Convey("When the stored role differs from the claim", func() {
			tok, _, _ := svc.Issue("promoted", model.RoleStudent)
			rec := serve(h, tok)
			So(rec.Body.String(), ShouldEqual, "promoted:school")
		})
	})

	Convey("Given a user lookup that fails", t, func() {
		h := auth.Middleware(svc, failingLookup{err: errors.New("dial tcp 10.0.0.7:5432: connection refused")})(echo)
		tok, _, _ := svc.Issue("s1", model.RoleStudent)
		rec := serve(h, tok)

		Convey("Then the request fails without exposing the cause", func() {
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(rec.Body.String(), ShouldContainSubstring, `"code":"internal_server_error"`)
			So(rec.Body.String(), ShouldContainSubstring, `"message":"Internal Server Error"`)
			So(rec.Body.String(), ShouldNotContainSubstring, "10.0.0.7")
		})
	})

	Convey("Given role guards", t, func() {
		self := func(*http.Request) string { return "s1" }
		guarded := auth.Middleware(svc, nil)(auth.RequireSelfOr(self, model.RoleSchool, model.RoleAdmin)(echo))
		staffOnly := auth.Middleware(svc, nil)(auth.Require(model.RoleSchool, model.RoleAdmin)(echo))

		Convey("Then a student may act on their own id", func() {
			tok, _, _ := svc.Issue("s1", model.RoleStudent)
			So(serve(guarded, tok).Code, ShouldEqual, http.StatusOK)
			So(serve(staffOnly, tok).Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("And another student is forbidden", func() {
			tok, _, _ := svc.Issue("s2", model.RoleStudent)
			So(serve(guarded, tok).Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("And school staff are admitted", func() {
			tok, _, _ := svc.Issue("t1", model.RoleSchool)
			So(serve(guarded, tok).Code, ShouldEqual, http.StatusOK)
			So(serve(staffOnly, tok).Code, ShouldEqual, http.StatusOK)
		})

		Convey("And a request without identity is unauthorized", func() {
			rec := httptest.NewRecorder()
			auth.Require(model.RoleAdmin)(echo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
		})
	})
}
