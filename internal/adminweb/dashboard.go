package adminweb

import (
	"html/template"
	"net/http"

	"github.com/lueurxax/taxi-order-bot/internal/keywords"
)

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Taxi Userbot Admin</title>
  <style>
    body { margin:0; font-family: -apple-system, Segoe UI, sans-serif; background:#f3f5fb; color:#151820; }
    .wrap { max-width: 1180px; margin:0 auto; padding:14px; }
    .grid { display:grid; grid-template-columns: 1fr 1fr; gap:12px; }
    .card { background:#fff; border:1px solid #dbe0ee; border-radius:12px; padding:12px; }
    .row { display:flex; gap:8px; margin-bottom:8px; }
    input, select, button { padding:9px; border-radius:9px; border:1px solid #ccd3e4; font:inherit; }
    button { cursor:pointer; }
    .tbl { width:100%; border-collapse:collapse; font-size:0.86rem; }
    .tbl th, .tbl td { border-bottom:1px solid #edf1f8; padding:6px; text-align:left; }
    pre { white-space:pre-wrap; font-size:0.82rem; }
  </style>
</head>
<body>
<div class="wrap">
  <h2>Taxi Userbot Admin</h2>
  <div class="grid">
    <div class="card">
      <h3>Kalit so'zlar</h3>
      <div class="row">
        <select id="kw-kind">
          {{range .Kinds}}<option value="{{.}}">{{.}}</option>{{end}}
        </select>
        <input id="kw-value" placeholder="qiymat" />
        <button onclick="addKeyword()">Qo'shish</button>
      </div>
      <pre id="kw-list"></pre>
    </div>
    <div class="card">
      <h3>Guruhlar</h3>
      <div class="row">
        <input id="group-username" placeholder="@username yoki t.me/+invite" />
        <button onclick="addGroup()">Qo'shish</button>
      </div>
      <pre id="group-list"></pre>
    </div>
    <div class="card">
      <h3>Sozlamalar</h3>
      <div class="row">
        <input id="cfg-key" placeholder="key" />
        <input id="cfg-value" placeholder="value" />
        <button onclick="setConfig()">Saqlash</button>
      </div>
      <pre id="cfg-list"></pre>
    </div>
  </div>
</div>
<script>
const tokenQS = {{.TokenQS}};

async function api(path, options) {
  const res = await fetch(path + tokenQS, options);
  return res.json();
}

async function refresh() {
  document.getElementById('kw-list').textContent = JSON.stringify(await api('/api/keywords'), null, 2);
  document.getElementById('group-list').textContent = JSON.stringify(await api('/api/groups'), null, 2);
  document.getElementById('cfg-list').textContent = JSON.stringify(await api('/api/config'), null, 2);
}

async function addKeyword() {
  await api('/api/keywords', {method:'POST', headers:{'Content-Type':'application/json'},
    body: JSON.stringify({kind: document.getElementById('kw-kind').value, value: document.getElementById('kw-value').value})});
  refresh();
}

async function addGroup() {
  const value = document.getElementById('group-username').value;
  const path = value.includes('+') || value.includes('joinchat') ? '/api/groups/private/add' : '/api/groups/public/add';
  const body = path.includes('private') ? {invite_link: value} : {username: value};
  await api(path, {method:'POST', headers:{'Content-Type':'application/json'}, body: JSON.stringify(body)});
  refresh();
}

async function setConfig() {
  await api('/api/config', {method:'POST', headers:{'Content-Type':'application/json'},
    body: JSON.stringify({key: document.getElementById('cfg-key').value, value: document.getElementById('cfg-value').value})});
  refresh();
}

refresh();
</script>
</body>
</html>
`))

type dashboardData struct {
	Kinds   []string
	TokenQS string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	tokenQS := ""
	if token := r.URL.Query().Get("token"); token != "" {
		tokenQS = "?token=" + token
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := dashboardTemplate.Execute(w, dashboardData{
		Kinds:   keywords.Kinds,
		TokenQS: tokenQS,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("dashboard render failed")
	}
}
