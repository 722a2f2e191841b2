package web

import "html/template"

const layoutHead = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Cointrack</title>
  <link href="https://fonts.googleapis.com/css2?family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    :root { --bg:#1b1c1d; --card:#26282a; --ink:#ffffff; --soft:#9a9696; --on:#73f59f; }
    * { box-sizing:border-box; }
    body { margin:0; min-height:100vh; background:var(--bg); color:var(--ink); font-family:'Space Mono',monospace; }
    nav { display:flex; gap:1.5rem; padding:1rem 2rem; border-bottom:2px solid var(--card); }
    nav a { color:var(--soft); text-decoration:none; text-transform:uppercase; letter-spacing:.1em; }
    nav a.active { color:var(--ink); border-bottom:2px solid var(--ink); }
    main { width:80%; margin:2em auto; }
    .grid { display:flex; flex-wrap:wrap; gap:2em 5%; }
    .card { width:28%; display:flex; align-items:center; justify-content:space-between; padding:1em 2em;
      border-radius:5px; background:var(--card); box-shadow:0 3px 6px rgba(0,0,0,.16),0 3px 6px rgba(0,0,0,.23); font-size:1.2em; }
    .symbol { display:flex; align-items:center; gap:.5em; }
    .status { color:var(--soft); }
    .banner { padding:1em; border:2px solid #f57373; color:#f57373; margin-bottom:1em; }
    button.toggle { min-width:4.5em; padding:.3em .8em; border:none; border-radius:1em; cursor:pointer; background:var(--soft); }
    button.toggle.on { background:var(--on); }
    #recent { margin-top:3em; color:var(--soft); }
    #recent ul { list-style:none; padding:0; }
    #recent li.failed { color:#f57373; }
  </style>
</head>
<body>`

var homeTemplate = template.Must(template.New("home").Parse(layoutHead + `
<nav><a class="active" href="/">home</a><a href="/coins">coins</a></nav>
<main>
  <h1>Cointrack</h1>
  <p>Pick the coins the bot should keep an eye on. Every switch is saved on the coin service before it shows up here.</p>
  <p><a href="/coins" style="color:#73f59f">Go to your coins &rarr;</a></p>
</main>
</body>
</html>`))

var coinsTemplate = template.Must(template.New("coins").Parse(layoutHead + `
<nav><a href="/">home</a><a class="active" href="/coins">coins</a></nav>
<main>
  <div id="banner" class="banner" {{if ne .State "failed"}}hidden{{end}}>Could not load coins: <span id="banner-text">{{.Error}}</span>
    <button id="reload">retry</button></div>
  <div id="coins" class="grid">
  {{range .Coins}}
    <div class="card" data-symbol="{{.Symbol}}">
      <span class="symbol"><img alt="icon" src="{{.Icon}}" height="32" width="32"/>{{.Symbol}}</span>
      <button class="toggle{{if .Enabled}} on{{end}}" data-enabled="{{.Enabled}}">{{if .Enabled}}on{{else}}off{{end}}</button>
    </div>
  {{else}}
    <p class="status">{{if eq .State "loading"}}loading&hellip;{{else}}no coins{{end}}</p>
  {{end}}
  </div>
  <section id="recent">
    <h3>Recent changes</h3>
    <ul id="toggles"></ul>
  </section>
</main>
<script>
const grid = document.getElementById('coins');
const banner = document.getElementById('banner');

function render(state) {
  banner.hidden = state.state !== 'failed';
  document.getElementById('banner-text').textContent = state.error || '';
  grid.replaceChildren();
  if (state.coins.length === 0) {
    const p = document.createElement('p');
    p.className = 'status';
    p.textContent = state.state === 'loading' ? 'loading…' : 'no coins';
    grid.append(p);
    return;
  }
  for (const c of state.coins) {
    const card = document.createElement('div');
    card.className = 'card';
    card.dataset.symbol = c.symbol;
    const label = document.createElement('span');
    label.className = 'symbol';
    const img = document.createElement('img');
    img.alt = 'icon'; img.src = c.icon; img.height = 32; img.width = 32;
    label.append(img, c.symbol);
    const btn = document.createElement('button');
    btn.className = 'toggle' + (c.enabled ? ' on' : '');
    btn.dataset.enabled = String(c.enabled);
    btn.textContent = c.enabled ? 'on' : 'off';
    card.append(label, btn);
    grid.append(card);
  }
}

grid.addEventListener('click', async (e) => {
  const btn = e.target.closest('button.toggle');
  if (!btn) return;
  const symbol = btn.closest('.card').dataset.symbol;
  const want = btn.dataset.enabled !== 'true';
  btn.disabled = true;
  try {
    const resp = await fetch('/api/coins/' + encodeURIComponent(symbol) + '?enable=' + want, {method: 'POST'});
    if (resp.ok) render(await resp.json());
  } finally {
    btn.disabled = false;
  }
});

document.getElementById('reload').addEventListener('click', async () => {
  const resp = await fetch('/api/reload', {method: 'POST'});
  render(await resp.json());
});

const toggles = document.getElementById('toggles');
const maxToggles = 10;

function addToggle(ev, atTop) {
  const li = document.createElement('li');
  const when = new Date(ev.ts).toLocaleTimeString();
  const target = ev.enabled ? 'on' : 'off';
  if (ev.ok) {
    li.textContent = when + '  ' + ev.symbol + ' switched ' + target;
  } else {
    li.className = 'failed';
    li.textContent = when + '  ' + ev.symbol + ' was not switched ' + target + ': ' + ev.error;
  }
  if (atTop) toggles.prepend(li); else toggles.append(li);
  while (toggles.children.length > maxToggles) toggles.lastChild.remove();
}

fetch('/api/toggles?limit=' + maxToggles)
  .then((resp) => resp.json())
  .then((events) => events.forEach((ev) => addToggle(ev, false)));

const stream = new EventSource('/coins/stream');
stream.addEventListener('coins', (e) => render(JSON.parse(e.data)));
stream.addEventListener('toggle', (e) => addToggle(JSON.parse(e.data), true));
</script>
</body>
</html>`))
