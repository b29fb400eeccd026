package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/datben/gulf-stream/foundation/web"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type peerRequest struct {
	Host string `json:"host" validate:"required"`
}

func Test_App(t *testing.T) {
	shutdown := make(chan os.Signal, 1)

	var order []string
	mw := func(name string) web.Middleware {
		return func(handler web.Handler) web.Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				order = append(order, name)
				return handler(ctx, w, r)
			}
		}
	}

	app := web.NewApp(shutdown, mw("app"))

	app.Handle(http.MethodPost, "v1", "/peers/:name", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var req peerRequest
		if err := web.Decode(r, &req); err != nil {
			fields := web.GetFieldErrors(err)
			if fields == nil {
				return err
			}
			return web.Respond(ctx, w, fields.Fields(), http.StatusBadRequest)
		}

		resp := struct {
			Name string `json:"name"`
			Host string `json:"host"`
		}{
			Name: web.Param(r, "name"),
			Host: req.Host,
		}

		return web.Respond(ctx, w, resp, http.StatusOK)
	}, mw("route"))

	app.Handle(http.MethodGet, "v1", "/broken", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.NewShutdownError("integrity issue")
	})

	t.Log("Given the need to route requests through middleware.")
	{
		r := httptest.NewRequest(http.MethodPost, "/v1/peers/node-b", strings.NewReader(`{"host":"node-b:9080"}`))
		w := httptest.NewRecorder()
		app.ServeHTTP(w, r)

		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"name":"node-b"`) {
			t.Fatalf("\t%s\tShould route with parameters: %d %s", failed, w.Code, w.Body.String())
		}
		t.Logf("\t%s\tShould route with parameters.", success)

		if strings.Join(order, ",") != "app,route" {
			t.Fatalf("\t%s\tShould run the app middleware first: %v", failed, order)
		}
		t.Logf("\t%s\tShould run the app middleware first.", success)

		r = httptest.NewRequest(http.MethodPost, "/v1/peers/node-b", strings.NewReader(`{}`))
		w = httptest.NewRecorder()
		app.ServeHTTP(w, r)

		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), `"host"`) {
			t.Fatalf("\t%s\tShould report the missing field: %d %s", failed, w.Code, w.Body.String())
		}
		t.Logf("\t%s\tShould report the missing field.", success)

		r = httptest.NewRequest(http.MethodGet, "/v1/broken", nil)
		w = httptest.NewRecorder()
		app.ServeHTTP(w, r)

		select {
		case <-shutdown:
			t.Logf("\t%s\tShould signal shutdown on an integrity error.", success)
		default:
			t.Fatalf("\t%s\tShould signal shutdown on an integrity error.", failed)
		}
	}
}
