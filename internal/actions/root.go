package actions

import (
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/searchgate/searchgate/internal/api_server/versioning"
	"github.com/searchgate/searchgate/internal/rest"
	"github.com/searchgate/searchgate/pkg/version"
)

const tagline = "You Know, for Search"

// NodeInfo is what the root endpoint reports about this node.
type NodeInfo struct {
	Name             string
	ClusterName      string
	ClusterUUID      string
	Started          time.Time
	MaxContentLength int64
}

type rootVersion struct {
	Number      string   `json:"number"`
	BuildHash   string   `json:"build_hash"`
	BuildDate   string   `json:"build_date"`
	APIVersions []string `json:"api_versions"`
}

type rootResponse struct {
	Name                string      `json:"name"`
	ClusterName         string      `json:"cluster_name"`
	ClusterUUID         string      `json:"cluster_uuid"`
	Version             rootVersion `json:"version"`
	Uptime              string      `json:"uptime,omitempty"`
	UptimeInMillis      int64       `json:"uptime_in_millis"`
	MaxContentLength    string      `json:"max_content_length,omitempty"`
	MaxContentLengthRaw int64       `json:"max_content_length_in_bytes"`
	Tagline             string      `json:"tagline"`
}

func newRootHandler(node NodeInfo, now func() time.Time) *rest.BaseHandler {
	return &rest.BaseHandler{
		Prepare: func(req *rest.Request) (rest.Consumer, error) {
			return func(ch *rest.Channel) error {
				return ch.SendObject(http.StatusOK, rootDocument(node, now(), ch.Human()))
			}, nil
		},
	}
}

func rootDocument(node NodeInfo, now time.Time, human bool) rootResponse {
	info := version.Get()
	resp := rootResponse{
		Name:        node.Name,
		ClusterName: node.ClusterName,
		ClusterUUID: node.ClusterUUID,
		Version: rootVersion{
			Number:    info.GitVersion,
			BuildHash: info.GitCommit,
			BuildDate: info.BuildDate,
			APIVersions: lo.Map(versioning.Served(), func(v versioning.Version, _ int) string {
				return v.String()
			}),
		},
		UptimeInMillis:      now.Sub(node.Started).Milliseconds(),
		MaxContentLengthRaw: node.MaxContentLength,
		Tagline:             tagline,
	}
	if human {
		resp.Uptime = strings.TrimSpace(humanize.RelTime(node.Started, now, "", ""))
		resp.MaxContentLength = humanize.IBytes(uint64(max(node.MaxContentLength, 0)))
	}
	return resp
}
