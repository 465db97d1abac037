package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/arena/internal/adapters/llm"
	"github.com/okian/arena/internal/domain/agent"
	"github.com/okian/arena/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

func TestClientRespond(t *testing.T) {
	Convey("Given a fake chat completions server", t, func() {
		var gotHeader http.Header
		var gotBody map[string]any
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotHeader = r.Header.Clone()
			gotPath = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  {\"action_index\": 1, \"reasoning\": \"ok\"}  "}}]}`))
		}))
		defer srv.Close()

		c, err := llm.New("openai/gpt-4o",
			llm.WithBaseURL(srv.URL+"/"),
			llm.WithAPIKey("sk-test"),
			llm.WithMaxTokens(256),
			llm.WithSiteURL("https://arena.example"),
			llm.WithTitle("arena"))
		So(err, ShouldBeNil)

		out, err := c.Respond(context.Background(), agent.Prompt{System: "sys", User: "usr"})

		Convey("Then the content is returned trimmed", func() {
			So(err, ShouldBeNil)
			So(out, ShouldEqual, `{"action_index": 1, "reasoning": "ok"}`)
		})

		Convey("Then the request carries auth, attribution and JSON mode", func() {
			So(gotPath, ShouldEqual, "/chat/completions")
			So(gotHeader.Get("Authorization"), ShouldEqual, "Bearer sk-test")
			So(gotHeader.Get("HTTP-Referer"), ShouldEqual, "https://arena.example")
			So(gotHeader.Get("X-Title"), ShouldEqual, "arena")
			So(gotBody["model"], ShouldEqual, "openai/gpt-4o")
			So(gotBody["temperature"], ShouldEqual, 0.7)
			So(gotBody["max_tokens"], ShouldEqual, 256.0)
			So(gotBody["response_format"], ShouldResemble, map[string]any{"type": "json_object"})
			msgs := gotBody["messages"].([]any)
			So(msgs, ShouldHaveLength, 2)
			So(msgs[1].(map[string]any)["content"], ShouldEqual, "usr")
		})
	})
}

func TestClientErrors(t *testing.T) {
	Convey("Given failing servers", t, func() {
		ctx := context.Background()

		Convey("When the API key is missing", func() {
			_, err := llm.New("m")
			So(errors.Is(err, llm.ErrMissingAPIKey), ShouldBeTrue)

			_, err = llm.NewFactory()("m")
			So(errors.Is(err, llm.ErrMissingAPIKey), ShouldBeTrue)
		})

		Convey("When the server returns an HTTP error", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			}))
			defer srv.Close()
			c, _ := llm.New("m", llm.WithBaseURL(srv.URL), llm.WithAPIKey("k"))

			_, err := c.Respond(ctx, agent.Prompt{})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "http 429")
		})

		Convey("When there are no choices", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			}))
			defer srv.Close()
			c, _ := llm.New("m", llm.WithBaseURL(srv.URL), llm.WithAPIKey("k"), llm.WithJSONMode(false))

			_, err := c.Respond(ctx, agent.Prompt{})
			So(errors.Is(err, llm.ErrNoChoices), ShouldBeTrue)
		})

		Convey("When the server is slower than the timeout", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			}))
			defer srv.Close()
			c, _ := llm.New("m", llm.WithBaseURL(srv.URL), llm.WithAPIKey("k"), llm.WithTimeout(50*time.Millisecond))

			_, err := c.Respond(ctx, agent.Prompt{})
			So(err, ShouldNotBeNil)
		})
	})
}
