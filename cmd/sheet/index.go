package main

// indexHTML is the single page client. It only renders the "state" snapshots
// the server sends; every decision about attachments happens server side.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>W40K Cheat Sheet</title>
<style>
  body { font-family: system-ui, sans-serif; background: #16181d; color: #e6e6e6; margin: 0; }
  main { max-width: 960px; margin: 0 auto; padding: 24px; }
  h1 { font-size: 1.6rem; margin: 0 0 16px; }
  textarea { width: 100%; min-height: 260px; background: #0f1115; color: #e6e6e6; border: 1px solid #333; border-radius: 6px; padding: 8px; font-family: monospace; }
  select, button { background: #22262e; color: #e6e6e6; border: 1px solid #444; border-radius: 6px; padding: 6px 10px; }
  button { cursor: pointer; }
  button:disabled { opacity: .5; cursor: default; }
  .row { display: flex; gap: 8px; align-items: center; margin: 8px 0; flex-wrap: wrap; }
  .hidden { display: none; }
  .error { background: #4a1d1d; border: 1px solid #a33; padding: 8px 12px; border-radius: 6px; margin: 8px 0; }
  .notice { background: #3d3418; border: 1px solid #a83; padding: 8px 12px; border-radius: 6px; margin: 8px 0; }
  .leader { display: grid; grid-template-columns: 220px 1fr; gap: 8px; align-items: center; margin: 6px 0; }
  #result-frame { width: 100%; min-height: 600px; background: #fff; border: 0; border-radius: 6px; }
  #result-md { white-space: pre-wrap; background: #0f1115; padding: 12px; border-radius: 6px; }
  footer { color: #777; font-size: .8rem; margin-top: 24px; }
</style>
</head>
<body>
<main>
  <h1>W40K Cheat Sheet Generator</h1>
  <div id="error" class="error hidden"></div>
  <div id="notice" class="notice hidden"></div>

  <section id="form">
    <textarea id="army-list" placeholder="Paste your army list here"></textarea>
    <div class="row">
      <label>Format
        <select id="format">
          <option value="html">HTML</option>
          <option value="markdown">Markdown</option>
        </select>
      </label>
      <button id="generate">Generate</button>
      <button id="example">Load example</button>
    </div>
  </section>

  <section id="loading" class="hidden"><p>Generating cheat sheet...</p></section>

  <section id="attachments" class="hidden">
    <h2>Leader attachments</h2>
    <p>Choose which unit each leader joins. A unit can only be led by one leader.</p>
    <div id="leaders"></div>
    <div class="row">
      <button id="submit">Generate with attachments</button>
      <button id="cancel">Cancel</button>
    </div>
  </section>

  <section id="submitting" class="hidden"><p>Generating cheat sheet with attachments...</p></section>

  <section id="result" class="hidden">
    <h2 id="result-title"></h2>
    <div class="row">
      <button id="download">Download</button>
      <button id="reset">New list</button>
    </div>
    <iframe id="result-frame" class="hidden" sandbox=""></iframe>
    <div id="result-md" class="hidden"></div>
  </section>

  <footer>build {{BUILD_VERSION}}</footer>
</main>
<script>
(function () {
  const $ = (id) => document.getElementById(id);
  const sections = { form: "form", loading: "loading", selecting: "attachments", submitting: "submitting", result: "result" };
  let ws = null;
  let current = null;

  function send(type, data) {
    if (!ws || ws.readyState !== WebSocket.OPEN) {
      showError("Network error: not connected");
      return;
    }
    ws.send(JSON.stringify(data === undefined ? { type } : { type, data }));
  }

  function showError(msg) {
    $("error").textContent = msg || "";
    $("error").classList.toggle("hidden", !msg);
  }

  function flash(msg) {
    const n = $("notice");
    n.textContent = msg;
    n.classList.remove("hidden");
    clearTimeout(flash.t);
    flash.t = setTimeout(() => n.classList.add("hidden"), 4000);
  }

  function optionKey(unit) {
    return unit ? unit.name + "\u0000" + unit.ordinal : "";
  }

  function renderSelectors(selectors) {
    const root = $("leaders");
    root.innerHTML = "";
    (selectors || []).forEach((sel) => {
      const row = document.createElement("div");
      row.className = "leader";
      const label = document.createElement("label");
      label.textContent = sel.leader;
      const pick = document.createElement("select");
      const byKey = {};
      sel.options.forEach((opt) => {
        const o = document.createElement("option");
        o.value = optionKey(opt.unit);
        o.textContent = opt.label;
        o.disabled = !!opt.disabled;
        o.selected = !!opt.selected;
        byKey[o.value] = opt.unit || null;
        pick.appendChild(o);
      });
      pick.addEventListener("change", () => {
        send("select", { leader: sel.leader, unit: byKey[pick.value] });
      });
      row.appendChild(label);
      row.appendChild(pick);
      root.appendChild(row);
    });
  }

  function renderResult(res) {
    $("result-title").textContent = res.points ? res.display_name + " - " + res.points + " Points" : res.display_name;
    const frame = $("result-frame");
    const md = $("result-md");
    if (res.format === "markdown") {
      md.textContent = res.content;
      md.classList.remove("hidden");
      frame.classList.add("hidden");
    } else {
      frame.srcdoc = res.content;
      frame.classList.remove("hidden");
      md.classList.add("hidden");
    }
  }

  function render(state) {
    current = state;
    Object.entries(sections).forEach(([phase, id]) => {
      $(id).classList.toggle("hidden", phase !== state.phase);
    });
    showError(state.error);
    if (state.request && state.phase === "form" && !$("army-list").value) {
      $("army-list").value = state.request.army_list;
      $("format").value = state.request.format;
    }
    if (state.phase === "selecting") renderSelectors(state.selectors);
    if (state.phase === "result" && state.result) renderResult(state.result);
  }

  function connect() {
    const proto = location.protocol === "https:" ? "wss:" : "ws:";
    ws = new WebSocket(proto + "//" + location.host + "/ws");
    ws.onmessage = (ev) => {
      const msg = JSON.parse(ev.data);
      switch (msg.type) {
        case "state":
          render(msg.data);
          break;
        case "rejected":
          flash(msg.data.message);
          if (current && current.phase === "selecting") renderSelectors(current.selectors);
          break;
        case "example":
          $("army-list").value = msg.data.army_list;
          $("format").value = msg.data.format;
          break;
      }
    };
    ws.onclose = () => {
      showError("Network error: connection lost, reconnecting...");
      setTimeout(connect, 2000);
    };
  }

  $("generate").addEventListener("click", () => {
    send("generate", { army_list: $("army-list").value, format: $("format").value });
  });
  $("example").addEventListener("click", () => send("example"));
  $("submit").addEventListener("click", () => send("submit"));
  $("cancel").addEventListener("click", () => send("cancel"));
  $("reset").addEventListener("click", () => {
    $("army-list").value = "";
    send("reset");
  });
  $("download").addEventListener("click", () => {
    if (!current || !current.result) return;
    const res = current.result;
    const type = res.format === "markdown" ? "text/markdown" : "text/html";
    const url = URL.createObjectURL(new Blob([res.content], { type }));
    const a = document.createElement("a");
    a.href = url;
    a.download = res.filename;
    a.click();
    URL.revokeObjectURL(url);
  });

  connect();
})();
</script>
</body>
</html>
`
