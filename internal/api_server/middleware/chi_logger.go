package middleware

import (
	"log"
	"net/http"
	"os"
	"runtime"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/searchgate/searchgate/internal/api_server/versioning"
	"github.com/searchgate/searchgate/internal/mediatype"
)

type apiVersionTaggingLogger struct {
	base       chimw.LoggerInterface
	apiVersion string
}

// Print intercepts log messages and injects the API version tag.
func (l apiVersionTaggingLogger) Print(v ...interface{}) {
	if len(v) != 1 {
		l.base.Print(v...)
		return
	}

	// Chi logs format: "HTTP/1.1 200 OK from 127.0.0.1". This finds " from "
	// and injects the version tag before it: "HTTP/1.1 200 OK (v7) from 127.0.0.1"
	if s, ok := v[0].(string); ok {
		tag := " " + l.apiVersion
		if i := strings.Index(s, " from "); i >= 0 {
			l.base.Print(s[:i] + tag + s[i:])
			return
		}
		l.base.Print(s + tag)
		return
	}

	l.base.Print(v...)
}

// apiVersionTag returns the version the Accept header asks for as "(v<N>)",
// or "(invalid)" when the header cannot be parsed or names an unserved
// version.
func apiVersionTag(parser mediatype.Parser, accept []string) string {
	parsed, err := mediatype.ParseHeader(parser, versioning.HeaderAccept, accept)
	if err != nil {
		return "(invalid)"
	}
	v, err := versioning.Requested(versioning.HeaderAccept, parsed)
	if err != nil {
		return "(invalid)"
	}
	return "(v" + v.String() + ")"
}

type apiVersionLogFormatter struct {
	Logger  chimw.LoggerInterface
	Parser  mediatype.Parser
	NoColor bool
}

func (f *apiVersionLogFormatter) NewLogEntry(r *http.Request) chimw.LogEntry {
	apiVersion := apiVersionTag(f.Parser, r.Header.Values(versioning.HeaderAccept))
	logger := apiVersionTaggingLogger{base: f.Logger, apiVersion: apiVersion}

	df := &chimw.DefaultLogFormatter{Logger: logger, NoColor: f.NoColor}
	return df.NewLogEntry(r)
}

func ChiLoggerWithAPIVersionTag(parser mediatype.Parser) func(http.Handler) http.Handler {
	stdLogger := log.New(os.Stdout, "", log.LstdFlags)
	noColor := runtime.GOOS == "windows"

	return chimw.RequestLogger(&apiVersionLogFormatter{
		Logger:  stdLogger,
		Parser:  parser,
		NoColor: noColor,
	})
}

func ChiLogFormatterWithAPIVersionTag(logger chimw.LoggerInterface, parser mediatype.Parser) chimw.LogFormatter {
	return &apiVersionLogFormatter{
		Logger:  logger,
		Parser:  parser,
		NoColor: true,
	}
}
