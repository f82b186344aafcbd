package api

import (
	"html/template"
	"net/http"
)

var redirectPage = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Title}}</title>
{{if .BotURL}}<meta http-equiv="refresh" content="2;url={{.BotURL}}">{{end}}
<style>
body{font-family:Arial,sans-serif;text-align:center;padding:50px;}
.ok{color:#057a55} .fail{color:#b00020}
</style>
</head>
<body>
<h1 class="{{if .OK}}ok{{else}}fail{{end}}">{{.Heading}}</h1>
{{if .BotURL}}
<p>{{.Redirecting}}</p>
<p><a href="{{.BotURL}}">{{.OpenBot}}</a></p>
{{end}}
</body>
</html>`))

type redirectView struct {
	OK          bool
	Title       string
	Heading     string
	Redirecting string
	OpenBot     string
	BotURL      string
}

func (s *Server) renderRedirect(w http.ResponseWriter, ok bool) {
	v := redirectView{
		OK:          ok,
		Title:       s.tr.T("page_fail_title"),
		Heading:     s.tr.T("page_fail_heading"),
		Redirecting: s.tr.T("page_redirecting"),
		OpenBot:     s.tr.T("page_open_bot"),
	}
	if ok {
		v.Title = s.tr.T("page_success_title")
		v.Heading = s.tr.T("page_success_heading")
	}
	if s.botUsername != "" {
		v.BotURL = "https://t.me/" + s.botUsername
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := redirectPage.Execute(w, v); err != nil {
		s.log.Error().Err(err).Msg("render redirect page")
	}
}
