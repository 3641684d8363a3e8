// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/hashicorp/mockpass/profile"
	"golang.org/x/text/language"
)

// chooserText is the chooser page's copy in one language.
type chooserText struct {
	Lang        string
	Title       string
	Heading     string
	CustomTitle string
	Submit      string
}

var (
	chooserLanguages = []language.Tag{
		language.English,
		language.Chinese,
		language.Malay,
		language.Tamil,
	}

	// chooserTexts is indexed like chooserLanguages.
	chooserTexts = []chooserText{
		{
			Lang:        "en",
			Title:       "MockPass login",
			Heading:     "Choose a profile to log in as",
			CustomTitle: "Or log in with a custom profile",
			Submit:      "Log in",
		},
		{
			Lang:        "zh",
			Title:       "MockPass 登录",
			Heading:     "选择要登录的身份",
			CustomTitle: "或使用自定义身份登录",
			Submit:      "登录",
		},
		{
			Lang:        "ms",
			Title:       "Log masuk MockPass",
			Heading:     "Pilih profil untuk log masuk",
			CustomTitle: "Atau log masuk dengan profil tersuai",
			Submit:      "Log masuk",
		},
		{
			Lang:        "ta",
			Title:       "MockPass உள்நுழைவு",
			Heading:     "உள்நுழைய ஒரு சுயவிவரத்தைத் தேர்ந்தெடுக்கவும்",
			CustomTitle: "அல்லது தனிப்பயன் சுயவிவரத்துடன் உள்நுழையவும்",
			Submit:      "உள்நுழை",
		},
	}

	chooserMatcher = language.NewMatcher(chooserLanguages)

	chooserTemplate = template.Must(template.New("chooser").Parse(`<!DOCTYPE html>
<html lang="{{.Text.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Text.Title}}</title>
</head>
<body>
<h1>{{.Text.Heading}}</h1>
<ul id="profiles">
{{- range .Choices}}
<li><a class="profile" href="{{.AssertURL}}">{{.ID}}</a></li>
{{- end}}
</ul>
<h2>{{.Text.CustomTitle}}</h2>
<form id="custom-profile" method="get" action="{{.Endpoint}}">
<label>NRIC <input type="text" name="nric" required></label>
{{- if .ShowUUID}}
<label>UUID <input type="text" name="uuid" required></label>
{{- end}}
{{- if .ShowUEN}}
<label>UEN <input type="text" name="uen" required></label>
{{- end}}
<input type="hidden" name="redirectURI" value="{{.RedirectURI}}">
<input type="hidden" name="state" value="{{.State}}">
<input type="hidden" name="nonce" value="{{.Nonce}}">
<button type="submit">{{.Text.Submit}}</button>
</form>
</body>
</html>
`))
)

type chooserPage struct {
	Text        chooserText
	Choices     []Choice
	Endpoint    string
	ShowUUID    bool
	ShowUEN     bool
	RedirectURI string
	State       string
	Nonce       string
}

// chooserLanguage picks the page language from the ui_locales parameter,
// falling back to Accept-Language and then English.
func chooserLanguage(r *http.Request) chooserText {
	var prefs []language.Tag
	for _, l := range strings.Fields(r.URL.Query().Get("ui_locales")) {
		if t, err := language.Parse(l); err == nil {
			prefs = append(prefs, t)
		}
	}
	if accept, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil {
		prefs = append(prefs, accept...)
	}
	_, idx, _ := chooserMatcher.Match(prefs...)
	return chooserTexts[idx]
}

// renderChooser renders the chooser for the selection's choices along with a
// custom profile form for the variant.
func renderChooser(r *http.Request, v profile.Variant, s *Selection, req AuthorizeRequest) (string, error) {
	const op = "provider.renderChooser"
	page := chooserPage{
		Text:        chooserLanguage(r),
		Choices:     s.Choices,
		Endpoint:    "/" + v.Segment() + "/authorize/custom-profile",
		ShowUUID:    true,
		ShowUEN:     v == profile.CorpPass,
		RedirectURI: req.RedirectURI,
		State:       req.State,
		Nonce:       req.Nonce,
	}
	var buf bytes.Buffer
	if err := chooserTemplate.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return buf.String(), nil
}
