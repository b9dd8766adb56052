package webui

// indexHTML is the minimal single-page chat client. It polls the status
// endpoint until the agent is ready, then posts chat messages and renders the
// answer together with the tool activity log.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Chat with MCP Tools</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; }
#status { color: #666; font-size: 0.9rem; }
#log { white-space: pre-wrap; border: 1px solid #ddd; padding: 0.75rem; min-height: 12rem; margin: 1rem 0; }
#activity { white-space: pre-wrap; color: #555; font-size: 0.85rem; border-left: 3px solid #8cb4ff; padding-left: 0.75rem; }
form { display: flex; gap: 0.5rem; }
input[type=text] { flex: 1; padding: 0.5rem; }
</style>
</head>
<body>
<h1>Chat with MCP Tools</h1>
<div id="status">checking status...</div>
<div id="log"></div>
<form id="chat">
<input type="text" id="input" placeholder="Ask something..." autocomplete="off">
<button type="submit">Send</button>
</form>
<div id="activity"></div>
<script>
const statusEl = document.getElementById('status');
const logEl = document.getElementById('log');
const activityEl = document.getElementById('activity');

async function poll() {
  try {
    const res = await fetch('/api/status');
    const data = await res.json();
    if (data.status === 'ready') {
      statusEl.textContent = 'ready - tools: ' + (data.tools.join(', ') || 'none');
      return;
    }
    statusEl.textContent = data.status + (data.error ? ': ' + data.error : '');
    if (data.status === 'initializing') setTimeout(poll, 1000);
  } catch (e) {
    statusEl.textContent = 'status check failed';
  }
}
poll();

document.getElementById('chat').addEventListener('submit', async (ev) => {
  ev.preventDefault();
  const input = document.getElementById('input');
  const text = input.value.trim();
  if (!text) return;
  input.value = '';
  logEl.textContent += 'You: ' + text + '\n';
  const res = await fetch('/api/chat', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({input: text})
  });
  const data = await res.json();
  logEl.textContent += 'Agent: ' + data.output + '\n';
  activityEl.textContent = data.tool_calls || '';
});
</script>
</body>
</html>
`
