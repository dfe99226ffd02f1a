package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var bodyTemplate = template.Must(template.New("contact").Funcs(template.FuncMap{
	"lines": lines,
}).Parse(`<h2>Привіт! Хтось хоче з тобою поспілкуватися</h2>
<p><strong>Ім'я:</strong> {{.Req.Name}}</p>
<p><strong>Email відправника:</strong> {{.Req.Email}}</p>
<p><strong>Компанія відправника:</strong> {{.Req.Company}}</p>
<p><strong>Місцезнаходження:</strong> {{.Req.Location}}</p>
<p><strong>Запропонована дата та час:</strong> {{.Req.PreferredTime}}</p>
<p><strong>Повідомлення:</strong><br>{{lines .Req.Message}}</p>
<hr>
<small>Надіслано з {{.Site}}</small>
`))

// lines escapes s and turns its newlines into <br>.
func lines(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>")) //nolint:gosec // input escaped above
}

// Subject renders the message subject line.
func Subject(req ContactRequest) string {
	return fmt.Sprintf("Нове запрошення на співбесіду від %s (%s)", req.Name, req.Location)
}

// RenderHTML renders the message body; user input is escaped.
func RenderHTML(req ContactRequest, site string) (string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, struct {
		Req  ContactRequest
		Site string
	}{req, site}); err != nil {
		return "", fmt.Errorf("render contact html: %w", err)
	}
	return buf.String(), nil
}
