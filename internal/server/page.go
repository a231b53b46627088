// Package server serves the built-in chat page used for manual testing of
// the realtime protocol.
package server

import (
	"fmt"
	"log"
	"net/http"
)

// ChatPageHandler serves a minimal HTML page that connects with a token,
// joins a room, and exchanges messages over the WebSocket endpoint.
func ChatPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Relay Chat</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; cursor: pointer; }
    </style>
</head>
<body>
    <h1>Relay Chat</h1>

    <div>
        <input type="text" id="token" placeholder="Token">
        <input type="text" id="room" placeholder="Room" value="general">
        <button onclick="connect()">Connect</button>
    </div>

    <div id="messages"></div>

    <div>
        <input type="text" id="text" placeholder="Type a message...">
        <button onclick="sendMessage()">Send</button>
    </div>

    <script>
        let ws = null;

        function addLine(text) {
            const line = document.createElement('div');
            line.textContent = text;
            const messages = document.getElementById('messages');
            messages.appendChild(line);
            messages.scrollTop = messages.scrollHeight;
        }

        function connect() {
            const token = document.getElementById('token').value.trim();
            const room = document.getElementById('room').value.trim();
            const scheme = location.protocol === 'https:' ? 'wss' : 'ws';
            ws = new WebSocket(scheme + '://' + location.host + '/ws?token=' + encodeURIComponent(token));

            ws.onopen = function() {
                addLine('connected');
                if (room) {
                    ws.send(JSON.stringify({type: 'join', room: room}));
                }
            };
            ws.onmessage = function(event) {
                const frame = JSON.parse(event.data);
                if (frame.error) {
                    addLine('error: ' + frame.error);
                } else if (frame.type === 'notification') {
                    addLine('[' + frame.room + '] ' + frame.user + ' ' + frame.event + 'ed');
                } else {
                    addLine('[' + frame.room + '] ' + frame.user + ': ' + frame.text);
                }
            };
            ws.onclose = function() { addLine('disconnected'); ws = null; };
        }

        function sendMessage() {
            const room = document.getElementById('room').value.trim();
            const input = document.getElementById('text');
            if (ws && ws.readyState === WebSocket.OPEN && input.value.trim()) {
                ws.send(JSON.stringify({type: 'message', room: room, text: input.value.trim()}));
                input.value = '';
            }
        }

        document.getElementById('text').addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		log.Printf("Error writing HTML response: %v", err)
	}
}
