package web

import "github.com/gofiber/fiber/v2"

// indexPage is the whole dashboard: counters polled from the API and
// the live decision feed over the websocket.
const indexPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>go-follow</title>
<style>
body { font-family: monospace; background: #111; color: #ddd; margin: 2em; }
h1 { color: #6cf; }
#status span { margin-right: 1.5em; }
#feed div { padding: 2px 0; border-bottom: 1px solid #222; }
.person { color: #6f6; }
.stop { color: #f66; }
</style>
</head>
<body>
<h1>go-follow</h1>
<div id="status">loading...</div>
<div id="feed"></div>
<script>
async function poll() {
  const r = await fetch('/api/status');
  const s = await r.json();
  document.getElementById('status').innerHTML =
    '<span>frames: ' + s.frames_received + '</span>' +
    '<span>decoded: ' + s.frames_decoded + '</span>' +
    '<span>detections: ' + s.detections + '</span>' +
    '<span>decode errors: ' + s.decode_errors + '</span>' +
    '<span>detect errors: ' + s.detect_errors + '</span>';
}
setInterval(poll, 1000); poll();

const ws = new WebSocket('ws://' + location.host + '/ws/decisions');
ws.onmessage = (ev) => {
  const d = JSON.parse(ev.data);
  const div = document.createElement('div');
  div.className = d.person ? 'person' : 'stop';
  div.textContent = d.time + ' ' + (d.person ? 'FORWARD' : 'STOP') +
    ' ' + d.width + 'x' + d.height + ' lin=' + d.linear_x + ' ang=' + d.angular_z +
    ' "' + d.answer + '"';
  const feed = document.getElementById('feed');
  feed.prepend(div);
  while (feed.childElementCount > 50) feed.lastChild.remove();
};
</script>
</body>
</html>
`

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(indexPage)
}
