package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/searchgate/searchgate/internal/api_server/versioning"
	"github.com/searchgate/searchgate/internal/mediatype"
)

var _ = Describe("Dispatching", func() {
	var (
		handler    *recordingHandler
		observer   *recordingObserver
		controller *Controller
	)

	BeforeEach(func() {
		handler = &recordingHandler{}
		observer = &recordingObserver{}
		routes := NewRoutes()
		Expect(routes.Register(NewRoute(http.MethodPost, "/_search"), versioning.Current, handler)).To(Succeed())
		var err error
		controller, err = NewController(ControllerConfig{
			Routes:   routes,
			Observer: observer,
			Log:      testLogger(),
		})
		Expect(err).ToNot(HaveOccurred())
	})

	send := func(target string, headers map[string][]string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(`{"query":{}}`))
		r.Header.Del("Content-Type")
		for name, values := range headers {
			for _, v := range values {
				r.Header.Add(name, v)
			}
		}
		w := httptest.NewRecorder()
		controller.ServeHTTP(w, r)
		return w
	}

	reason := func(w *httptest.ResponseRecorder) string {
		var body struct {
			Error struct {
				Reason string `json:"reason"`
			} `json:"error"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		return body.Error.Reason
	}

	It("serves a plain JSON request at the current version", func() {
		w := send("/_search", map[string][]string{"Content-Type": {"application/json"}})

		Expect(w.Code).To(Equal(http.StatusOK))
		req := handler.Last()
		Expect(req).ToNot(BeNil())
		Expect(req.CompatibleVersion()).To(Equal(versioning.Current))
		Expect(req.ContentType().MediaType).To(Equal(mediatype.JSON))
		Expect(req.Accept()).To(BeNil())
		Expect(req.AcceptedMediaType()).To(Equal(mediatype.JSON))
		Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))
	})

	It("resolves the compatible version when both headers ask for it", func() {
		w := send("/_search", map[string][]string{
			"Accept":       {"application/vnd.search+json; compatible-with=7"},
			"Content-Type": {"application/vnd.search+json; compatible-with=7"},
		})

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(handler.Last().CompatibleVersion()).To(Equal(versioning.Compatible))
		Expect(handler.Last().AcceptedMediaType().Key()).To(Equal(mediatype.VendorJSON.Key()))
		Expect(w.Header().Get("Content-Type")).To(Equal("application/vnd.search+json;compatible-with=7"))
	})

	It("rejects headers asking for different versions", func() {
		w := send("/_search", map[string][]string{
			"Accept":       {"application/vnd.search+json; compatible-with=7"},
			"Content-Type": {"application/vnd.search+json; compatible-with=8"},
		})

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(reason(w)).To(ContainSubstring("ambiguous version"))
		Expect(handler.Calls()).To(BeZero())
	})

	It("rejects a version that is no longer served", func() {
		w := send("/_search", map[string][]string{
			"Accept":       {"application/vnd.search+json; compatible-with=6"},
			"Content-Type": {"application/json"},
		})

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(reason(w)).To(ContainSubstring("version no longer supported"))
		Expect(handler.Calls()).To(BeZero())
	})

	It("never runs the handler for a repeated Content-Type", func() {
		w := send("/_search", map[string][]string{
			"Content-Type": {"application/json", "application/json"},
		})

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(reason(w)).To(ContainSubstring("only one value should be provided"))
		Expect(handler.Calls()).To(BeZero())
		Expect(observer.outcomes).To(ConsistOf(OutcomeBadRequest))
	})

	It("rebuilds the request without parameters after a bad escape", func() {
		w := send("/_search?pretty&q=%zz", map[string][]string{"Content-Type": {"application/json"}})

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(reason(w)).To(ContainSubstring("failed to parse request parameters"))
		Expect(handler.Calls()).To(BeZero())
		Expect(observer.Recoveries()).To(Equal([]string{RecoveryParameters}))
		// the channel came from the rebuilt request, so pretty is gone
		Expect(w.Body.String()).ToNot(ContainSubstring("\n  "))
	})
})
