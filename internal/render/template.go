package render

import "html/template"

var showcaseTemplate = template.Must(template.New("showcase").Parse(showcaseHTML))

// showcaseHTML 中每张卡片都是独立的导出块；卡片背景半透明，
// 以便导出时透出 PDF 的页面背景。
const showcaseHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
  * { box-sizing: border-box; }
  body {
    margin: 0;
    font-family: "Inter", "Helvetica Neue", Arial, sans-serif;
    color: #1f2330;
    background: #f4f1fb center / cover no-repeat;
  }
  .sc-container { max-width: 794px; margin: 0 auto; padding: 32px 0 48px; }
  .sc-title { font-size: 28px; margin: 0 0 20px; padding: 0 24px; }
  .sc-toolbar { display: flex; justify-content: space-between; align-items: center; padding: 0 24px 16px; }
  .sc-views { color: #6b6f80; font-size: 13px; }
  .sc-export-btn { background: #6c4ad8; color: #fff; border: 0; border-radius: 8px; padding: 8px 16px; cursor: pointer; }
  #{{.RegionID}} { display: flex; flex-direction: column; gap: 16px; padding: 0 24px; }
  .sc-card {
    background: rgba(255, 255, 255, 0.88);
    border-radius: 14px;
    padding: 20px 24px;
    box-shadow: 0 1px 3px rgba(31, 35, 48, 0.08);
  }
  .sc-card h2 { font-size: 18px; margin: 0 0 12px; color: #6c4ad8; }
  .sc-card h3 { font-size: 15px; margin: 0 0 4px; }
  .sc-muted { color: #6b6f80; font-size: 13px; margin: 0 0 6px; }
  .sc-profile { display: flex; gap: 20px; align-items: center; }
  .sc-photo { width: 96px; height: 96px; border-radius: 50%; object-fit: cover; }
  .sc-name { font-size: 24px; margin: 0 0 4px; }
  .sc-links { display: flex; flex-wrap: wrap; gap: 8px 16px; margin: 8px 0 0; padding: 0; list-style: none; font-size: 13px; }
  .sc-links a, .sc-card a { color: #6c4ad8; text-decoration: none; }
  .sc-skills { display: flex; flex-wrap: wrap; gap: 8px; margin: 0; padding: 0; list-style: none; }
  .sc-skills li { background: #ede8fb; border-radius: 999px; padding: 4px 12px; font-size: 13px; }
  .sc-item + .sc-item { margin-top: 14px; }
  .sc-project-img { max-width: 100%; border-radius: 8px; margin: 8px 0; }
  .sc-video iframe, .sc-video video { width: 100%; aspect-ratio: 16 / 9; border: 0; border-radius: 8px; }
  .sc-print .sc-toolbar { display: none; }
  html.sc-transparent-capture, html.sc-transparent-capture body { background: transparent !important; }
</style>
</head>
<body class="{{if .Print}}sc-print{{else}}sc-public{{end}}"{{with .Background}} style="background-image: url('{{.}}')"{{end}}>
<div class="sc-container">
  <h1 class="sc-title">{{.Title}}</h1>
  <div class="sc-toolbar" data-export-exclude>
    <span class="sc-views">{{.Views}} views</span>
    {{if .ExportURL}}<button class="sc-export-btn" type="button" data-export-url="{{.ExportURL}}">PDF</button>{{end}}
  </div>

  <main id="{{.RegionID}}">
    {{with .Profile}}
    <section class="sc-card sc-profile" data-export-block="{{$.ProfileKey}}">
      {{with .Photo}}<img class="sc-photo" src="{{.}}" alt="">{{end}}
      <div>
        {{with .Name}}<h2 class="sc-name">{{.}}</h2>{{end}}
        {{with .Location}}<p class="sc-muted">{{.}}</p>{{end}}
        {{if .Links}}
        <ul class="sc-links">
          {{range .Links}}<li>{{if .Href}}<a href="{{.Href}}">{{.Text}}</a>{{else}}{{.Text}}{{end}}</li>{{end}}
        </ul>
        {{end}}
      </div>
    </section>
    {{end}}

    {{range .Sections}}
    {{if .Printable}}
    <section class="sc-card sc-{{.Kind}}" data-export-block="{{.Key}}">
    {{else}}
    <section class="sc-card sc-{{.Kind}}" data-export-exclude>
    {{end}}
      <h2>{{.Heading}}</h2>
      {{if eq .Kind "about"}}
        {{with .Headline}}<h3>{{.}}</h3>{{end}}
        {{with .Bio}}<div class="sc-text">{{.}}</div>{{end}}
      {{else if eq .Kind "skills"}}
        <ul class="sc-skills">{{range .Skills}}<li>{{.}}</li>{{end}}</ul>
      {{else if eq .Kind "experience"}}
        {{range .Experience}}
        <div class="sc-item">
          <h3>{{.Role}}</h3>
          <p class="sc-muted">{{.Company}}{{if and .Company .Period}} — {{end}}{{.Period}}</p>
          <div class="sc-text">{{.Description}}</div>
        </div>
        {{end}}
      {{else if eq .Kind "projects"}}
        {{range .Projects}}
        <div class="sc-item">
          <h3>{{.Title}}</h3>
          {{with .ImageURL}}<img class="sc-project-img" src="{{.}}" alt="">{{end}}
          <div class="sc-text">{{.Description}}</div>
          {{with .Link}}<a href="{{.}}" target="_blank" rel="noopener noreferrer">Visit Project →</a>{{end}}
        </div>
        {{end}}
      {{else if eq .Kind "contacts"}}
        {{range .Contacts}}
        <p><strong>{{.Label}}:</strong> {{if .Href}}<a href="{{.Href}}">{{.Text}}</a>{{else}}{{.Text}}{{end}}</p>
        {{end}}
      {{else if eq .Kind "video"}}
        {{with .Video}}
        <div class="sc-video">
          {{if .IFrame}}<iframe src="{{.Src}}" allowfullscreen></iframe>{{else}}<video src="{{.Src}}" controls></video>{{end}}
        </div>
        {{end}}
      {{end}}
    </section>
    {{end}}
  </main>
  <div id="showcase-ready" hidden></div>
</div>
</body>
</html>
`
