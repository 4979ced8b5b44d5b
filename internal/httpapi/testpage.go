package httpapi

import "net/http"

func (s *Server) handleTestPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(testPageHTML))
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>GSM Call Router Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .status { padding: 10px; margin: 10px 0; border-radius: 5px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
        .events { height: 300px; overflow-y: scroll; border: 1px solid #ccc; padding: 10px; }
    </style>
</head>
<body>
    <h1>GSM Call Router Test</h1>
    <div id="status" class="status disconnected">Connecting...</div>
    <h3>Call Events</h3>
    <div id="events" class="events"></div>

    <script>
        const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
        const ws = new WebSocket(proto + '//' + location.host + '/ws/calls');

        ws.onopen = function() {
            document.getElementById('status').textContent = 'Connected';
            document.getElementById('status').className = 'status connected';
        };

        ws.onclose = function() {
            document.getElementById('status').textContent = 'Disconnected';
            document.getElementById('status').className = 'status disconnected';
        };

        ws.onmessage = function(event) {
            const data = JSON.parse(event.data);
            const eventsDiv = document.getElementById('events');
            const timestamp = new Date().toLocaleTimeString();

            eventsDiv.innerHTML += '<div>[' + timestamp + '] ' + JSON.stringify(data) + '</div>';
            eventsDiv.scrollTop = eventsDiv.scrollHeight;
        };
    </script>
</body>
</html>
`
