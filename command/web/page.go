package web

import (
	"encoding/json"
	"html/template"
)

func toJS(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Dashboard de Itens Jira</title>
<style>
:root {
  --bg: #fff; --fg: #1a1a2e; --card-bg: #f8f9fa; --border: #dee2e6;
  --table-alt: #f1f3f5; --muted: #6c757d; --warn: #fd7e14; --accent: #0d6efd;
}
@media (prefers-color-scheme: dark) {
  :root {
    --bg: #1a1a2e; --fg: #e9ecef; --card-bg: #16213e; --border: #495057;
    --table-alt: #0f3460; --muted: #adb5bd; --warn: #fd7e14; --accent: #5b9aff;
  }
}
* { box-sizing: border-box; margin: 0; padding: 0; }
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; background: var(--bg); color: var(--fg); line-height: 1.5; padding: 1rem; max-width: 1400px; margin: 0 auto; }
header { margin-bottom: 1.5rem; }
header h1 { font-size: 1.5rem; margin-bottom: .25rem; }
header p, .chart-box p { color: var(--muted); font-size: .875rem; }
.layout { display: grid; grid-template-columns: 240px 1fr; gap: 1rem; }
@media (max-width: 768px) { .layout { grid-template-columns: 1fr; } }
.filters { display: flex; flex-direction: column; gap: .75rem; }
.filters label { font-size: .75rem; color: var(--muted); text-transform: uppercase; }
.filters select { width: 100%; padding: .375rem .5rem; border: 1px solid var(--border); border-radius: 4px; background: var(--card-bg); color: var(--fg); font-size: .8125rem; }
.filters button { padding: .375rem .5rem; border: 1px solid var(--border); border-radius: 4px; background: var(--accent); color: #fff; cursor: pointer; }
.charts { display: grid; grid-template-columns: 1fr; gap: 1rem; margin-bottom: 1.5rem; }
.chart-box { background: var(--card-bg); border: 1px solid var(--border); border-radius: 8px; padding: 1rem; }
.chart-box h3 { font-size: .875rem; margin-bottom: .25rem; }
.legend { display: flex; flex-wrap: wrap; gap: .5rem; font-size: .75rem; margin-top: .5rem; }
.legend span::before { content: ""; display: inline-block; width: 10px; height: 10px; margin-right: 4px; border-radius: 2px; background: var(--c); }
.warnings { border-left: 4px solid var(--warn); padding: .5rem .75rem; margin-bottom: 1rem; font-size: .8125rem; background: var(--card-bg); }
table { width: 100%; border-collapse: collapse; font-size: .8125rem; }
th, td { padding: .5rem .625rem; text-align: left; border-bottom: 1px solid var(--border); vertical-align: top; }
tr:nth-child(even) { background: var(--table-alt); }
</style>
</head>
<body>
<header>
  <h1>Dashboard de Itens Jira</h1>
  {{if .RunID}}<p>Carregado em {{.LoadedAt}} &middot; {{.Issues}} itens &middot; execução {{.RunID}}</p>{{end}}
  {{if .Error}}<p class="warnings">Falha ao carregar os dados: {{.Error}}</p>{{end}}
</header>

{{if .Warnings}}<section class="warnings" id="warnings">
  {{range .Warnings}}<div>[{{.Code}}] {{.Message}}</div>{{end}}
</section>{{end}}

<div class="layout">
<aside class="filters">
  <h2>Filtros</h2>
  {{if .Enabled.item_type}}<label for="filter-type">Tipo de Item (para gráficos)</label>
  <select id="filter-type" multiple size="5">{{range .Filters.ItemTypes}}<option value="{{.}}" selected>{{.}}</option>{{end}}</select>{{end}}
  {{if .Enabled.priority}}<label for="filter-priority">Prioridade</label>
  <select id="filter-priority" multiple size="5">{{range .Filters.Priorities}}<option value="{{.}}" selected>{{.}}</option>{{end}}</select>{{end}}
  {{if .Enabled.assignee}}<label for="filter-assignee">Responsável</label>
  <select id="filter-assignee" multiple size="6">{{range .Filters.Assignees}}<option value="{{.}}" selected>{{.}}</option>{{end}}</select>{{end}}
  <label for="filter-metric">Métrica</label>
  <select id="filter-metric"><option value="mean">Média</option><option value="total">Total</option></select>
  <button type="button" onclick="refresh()">Aplicar</button>
  <button type="button" onclick="reloadData()">Recarregar dados</button>
</aside>

<main>
<section class="charts" id="charts"></section>

<section class="chart-box" id="detail">
  <h3>Tabela de Itens Filtrados</h3>
  <p>Lista detalhada de itens filtrados por tipo de item.</p>
  <select id="table-type" onchange="loadTable()">{{range .ItemTypes}}<option value="{{.}}">{{.}}</option>{{end}}</select>
  <div id="table-warnings"></div>
  <table><thead id="table-head"></thead><tbody id="table-body"></tbody></table>
</section>
</main>
</div>

<script>
var initialFilters = {{json .Filters}};
var colors = ["#0d6efd","#6f42c1","#20c997","#fd7e14","#e83e8c","#17a2b8","#6c757d","#28a745","#dc3545","#ffc107"];

function svgEl(tag, attrs) {
  var el = document.createElementNS("http://www.w3.org/2000/svg", tag);
  for (var k in attrs) el.setAttribute(k, attrs[k]);
  return el;
}

function text(x, y, s, anchor) {
  var t = svgEl("text", {x:x, y:y, "text-anchor":anchor||"start", fill:"currentColor", "font-size":"10"});
  t.textContent = s;
  return t;
}

function selected(id) {
  return Array.prototype.filter.call(document.getElementById(id).options, function(o){ return o.selected; })
    .map(function(o){ return o.value; });
}

function uniq(list) {
  return list.filter(function(v, i){ return list.indexOf(v) === i; });
}

function seriesKey(p) { return p.group ? p.series+" / "+p.group : p.series; }

function legend(box, names) {
  var l = document.createElement("div");
  l.className = "legend";
  names.forEach(function(n, i){
    var s = document.createElement("span");
    s.style.setProperty("--c", colors[i%colors.length]);
    s.textContent = n;
    l.appendChild(s);
  });
  box.appendChild(l);
}

function renderBars(box, chart) {
  var xs = uniq(chart.points.map(function(p){ return p.x; }));
  var names = uniq(chart.points.map(seriesKey));
  var max = Math.max.apply(null, chart.points.map(function(p){ return p.value; }).concat([1]));
  var slot = Math.max(24, names.length*10+8), w = xs.length*slot+60, h = 220;
  var svg = svgEl("svg", {width:"100%", viewBox:"0 0 "+w+" "+(h+40)});
  xs.forEach(function(x, i){
    var stackY = h;
    names.forEach(function(n, j){
      var p = chart.points.filter(function(p){ return p.x === x && seriesKey(p) === n; })[0];
      if (!p || !p.value) return;
      var bh = (p.value/max)*(h-20);
      if (chart.grouped) {
        svg.appendChild(svgEl("rect", {x:50+i*slot+j*10, y:h-bh, width:9, height:bh, fill:colors[j%colors.length]}));
      } else {
        stackY -= bh;
        svg.appendChild(svgEl("rect", {x:50+i*slot, y:stackY, width:slot-6, height:bh, fill:colors[j%colors.length]}));
      }
    });
    svg.appendChild(text(50+i*slot+slot/2, h+14, x.length > 14 ? x.slice(0,12)+"..." : x, "middle"));
  });
  svg.appendChild(text(45, 12, max, "end"));
  box.appendChild(svg);
  legend(box, names);
}

function renderLines(box, chart) {
  var xs = uniq(chart.points.map(function(p){ return p.x; })).sort();
  var names = uniq(chart.points.map(seriesKey));
  var vals = chart.points.map(function(p){ return p.value; });
  var max = Math.max.apply(null, vals.concat([1])), min = Math.min.apply(null, vals.concat([0]));
  var step = xs.length > 1 ? 600/(xs.length-1) : 0, h = 200;
  var y = function(v){ return 10+(h-20)*(1-(v-min)/((max-min)||1)); };
  var svg = svgEl("svg", {width:"100%", viewBox:"0 0 680 "+(h+30)});
  names.forEach(function(n, j){
    var pts = chart.points.filter(function(p){ return seriesKey(p) === n; })
      .map(function(p){ return (50+xs.indexOf(p.x)*step)+","+y(p.value); });
    svg.appendChild(svgEl("polyline", {points:pts.join(" "), fill:"none", stroke:colors[j%colors.length], "stroke-width":2}));
  });
  xs.forEach(function(x, i){ svg.appendChild(text(50+i*step, h+16, x, "middle")); });
  svg.appendChild(text(45, 14, max.toFixed(1), "end"));
  svg.appendChild(text(45, h-6, min.toFixed(1), "end"));
  box.appendChild(svg);
  legend(box, names);
}

function renderTimeline(box, chart) {
  if (!chart.spans || !chart.spans.length) return;
  var t0 = Math.min.apply(null, chart.spans.map(function(s){ return Date.parse(s.start); }));
  var t1 = Math.max.apply(null, chart.spans.map(function(s){ return Date.parse(s.end); }));
  var scale = 520/((t1-t0)||1);
  var svg = svgEl("svg", {width:"100%", viewBox:"0 0 680 "+(chart.spans.length*24+10)});
  chart.spans.forEach(function(s, i){
    var x = 140+(Date.parse(s.start)-t0)*scale, w = Math.max((Date.parse(s.end)-Date.parse(s.start))*scale, 2);
    svg.appendChild(svgEl("rect", {x:x, y:i*24+4, width:w, height:18, rx:3, fill:colors[i%colors.length]}));
    svg.appendChild(text(135, i*24+17, s.label, "end"));
  });
  box.appendChild(svg);
}

function renderCharts(d) {
  var root = document.getElementById("charts");
  root.innerHTML = "";
  (d.charts || []).forEach(function(chart){
    var box = document.createElement("div");
    box.className = "chart-box";
    var h = document.createElement("h3"); h.textContent = chart.title; box.appendChild(h);
    if (chart.description) { var p = document.createElement("p"); p.textContent = chart.description; box.appendChild(p); }
    if (chart.kind === "line") renderLines(box, chart);
    else if (chart.kind === "timeline") renderTimeline(box, chart);
    else renderBars(box, chart);
    root.appendChild(box);
  });
  (d.warnings || []).forEach(function(w){
    var box = document.createElement("div");
    box.className = "warnings";
    box.textContent = w.message;
    root.appendChild(box);
  });
}

function query() {
  var q = new URLSearchParams();
  var all = function(id, key, full){
    if (!document.getElementById(id)) return;
    var sel = selected(id);
    if (sel.length === (full || []).length) return;
    if (!sel.length) { q.append("none", key); return; }
    sel.forEach(function(v){ q.append(key, v); });
  };
  all("filter-type", "item_type", initialFilters.item_types);
  all("filter-priority", "priority", initialFilters.priorities);
  all("filter-assignee", "assignee", initialFilters.assignees);
  q.set("metric", document.getElementById("filter-metric").value);
  return q.toString();
}

function refresh() {
  fetch("/api/charts?"+query()).then(function(r){ return r.json(); }).then(renderCharts);
}

function loadTable() {
  var t = document.getElementById("table-type").value;
  fetch("/api/issues?table_type="+encodeURIComponent(t)).then(function(r){ return r.json(); }).then(function(d){
    var head = document.getElementById("table-head"), body = document.getElementById("table-body");
    head.innerHTML = ""; body.innerHTML = "";
    var tr = document.createElement("tr");
    (d.columns || []).forEach(function(c){ var th = document.createElement("th"); th.textContent = c; tr.appendChild(th); });
    head.appendChild(tr);
    (d.rows || []).forEach(function(row){
      var r = document.createElement("tr");
      row.forEach(function(v){ var td = document.createElement("td"); td.textContent = v; r.appendChild(td); });
      body.appendChild(r);
    });
    document.getElementById("table-warnings").textContent =
      (d.warnings || []).map(function(w){ return w.message; }).join(" ");
  });
}

function reloadData() {
  fetch("/api/reload", {method:"POST"}).then(function(){ window.location.reload(); });
}

refresh();
loadTable();
</script>
</body>
</html>`
