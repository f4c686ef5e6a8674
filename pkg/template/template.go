// Package template renders daemon configuration text from the embedded
// templates under templates/.
package template

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/confmode/confmode/pkg/util"
)

//go:embed templates
var templatesFS embed.FS

// FuncMap returns the functions available to every template: the sprig
// text functions plus hostPort.
func FuncMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["hostPort"] = util.HostPort
	return funcs
}

// Render executes the named template (e.g. "frr/rip.frr.tmpl") with data.
func Render(name string, data any) (string, error) {
	tmpl, err := template.New(path.Base(name)).
		Funcs(FuncMap()).
		Option("missingkey=error").
		ParseFS(templatesFS, path.Join("templates", name))
	if err != nil {
		return "", fmt.Errorf("loading template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering template %s: %w", name, err)
	}
	return buf.String(), nil
}

