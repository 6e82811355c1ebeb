package actions

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/searchgate/searchgate/internal/mediatype"
	"github.com/searchgate/searchgate/internal/rest"
	"github.com/searchgate/searchgate/internal/xcontent"
)

var mediaTypeColumns = []string{"media_type", "format", "body", "params"}

// newCatMediaTypesHandler lists the catalog. The v parameter prints the
// column names and h selects columns.
func newCatMediaTypesHandler(catalog *mediatype.Catalog) *rest.BaseHandler {
	return &rest.BaseHandler{
		AcceptTypes: append(mediatype.Tabular(), mediatype.Structured()...),
		DefaultType: mediatype.Text,
		Prepare: func(req *rest.Request) (rest.Consumer, error) {
			header, err := req.ParamAsBool("v", false)
			if err != nil {
				return nil, err
			}
			columns := mediaTypeColumns
			if selected := req.ParamAsList("h"); len(selected) > 0 {
				if unknown, _ := lo.Difference(selected, mediaTypeColumns); len(unknown) > 0 {
					return nil, &rest.IllegalArgumentError{
						Message: "unknown column(s) [" + strings.Join(unknown, ", ") + "] for parameter [h]",
					}
				}
				columns = selected
			}
			return func(ch *rest.Channel) error {
				return ch.SendObject(http.StatusOK, mediaTypesTable(catalog, columns, header))
			}, nil
		},
	}
}

func mediaTypesTable(catalog *mediatype.Catalog, columns []string, header bool) *xcontent.Table {
	body := lo.SliceToMap(catalog.BodyMediaTypes(), func(mt mediatype.MediaType) (string, bool) {
		return mt.Key(), true
	})
	table := &xcontent.Table{Columns: columns, Header: header}
	for _, mt := range catalog.MediaTypes() {
		cells := map[string]string{
			"media_type": mt.Key(),
			"format":     mt.Format,
			"body":       strconv.FormatBool(body[mt.Key()]),
			"params":     formatParams(catalog.ParameterPatterns(mt.Key())),
		}
		table.AddRow(lo.Map(columns, func(col string, _ int) string { return cells[col] })...)
	}
	return table
}

func formatParams(patterns map[string]string) string {
	names := lo.Keys(patterns)
	sort.Strings(names)
	return strings.Join(lo.Map(names, func(name string, _ int) string {
		return name + "=" + patterns[name]
	}), ";")
}
