package routes_auth

import (
	"html/template"
	"net/http"

	"github.com/obsidianempire/aoc-map/logging"
)

// The callback runs in a popup opened by the map page. Every page closes
// itself; the success page first hands the token to the opener.

const pageStyle = `<style>
body { font-family: sans-serif; background: #1e1f22; color: #f2f3f5; display: flex;
       align-items: center; justify-content: center; height: 100vh; margin: 0; }
.card { text-align: center; padding: 2rem 3rem; border-radius: 8px; background: #2b2d31; }
h1 { color: {{.Accent}}; }
</style>`

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html><head><title>Login successful</title>` + pageStyle + `</head>
<body><div class="card">
<h1>Logged in</h1>
<p>Welcome, {{.Username}}. This window will close automatically.</p>
</div>
<script>
if (window.opener) {
  window.opener.postMessage({type: 'discord_auth', token: {{.Token}}, username: {{.Username}}}, {{.TargetOrigin}});
}
setTimeout(function () { window.close(); }, 1000);
</script>
</body></html>`))

var messagePage = template.Must(template.New("message").Parse(`<!DOCTYPE html>
<html><head><title>{{.Title}}</title>` + pageStyle + `</head>
<body><div class="card">
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
<p>This window will close in {{.CloseAfter}} seconds.</p>
</div>
<script>setTimeout(function () { window.close(); }, {{.CloseAfterMillis}});</script>
</body></html>`))

type successData struct {
	Accent       template.CSS
	Token        string
	Username     string
	TargetOrigin string
}

type messageData struct {
	Accent           template.CSS
	Title            string
	Message          string
	CloseAfter       int
	CloseAfterMillis int
}

// renderSuccess hands the token to the opener, but only if the opener is
// served from targetOrigin ("*" when no map origin is configured).
func renderSuccess(w http.ResponseWriter, r *http.Request, token, username, targetOrigin string) {
	render(w, r, http.StatusOK, successPage, successData{
		Accent:       "#57f287",
		Token:        token,
		Username:     username,
		TargetOrigin: targetOrigin,
	})
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render(w, r, status, messagePage, messageData{
		Accent:           "#ed4245",
		Title:            "Login failed",
		Message:          message,
		CloseAfter:       5,
		CloseAfterMillis: 5000,
	})
}

func renderDenied(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusForbidden, messagePage, messageData{
		Accent:           "#fee75c",
		Title:            "Access denied",
		Message:          "The guild map is only open to members of the guild Discord server.",
		CloseAfter:       5,
		CloseAfterMillis: 5000,
	})
}

func render(w http.ResponseWriter, r *http.Request, status int, tmpl *template.Template, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("template", tmpl.Name()).Msg("render page")
	}
}
