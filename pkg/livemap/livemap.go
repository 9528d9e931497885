package livemap

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"f1dashboard/pkg/pubsub"
	"f1dashboard/pkg/render"
)

var upgrader = websocket.Upgrader{} // use default options

// writeWait bounds a single websocket write. It replaces the deadline the
// http server left on the hijacked connection.
const writeWait = 10 * time.Second

// LiveMap serves a browser page that follows a running replay. The latest
// frame published for the race is pushed to every websocket client on each
// tick.
type LiveMap struct {
	replay *Replay
	ps     *pubsub.PubSub[Frame]
	frames <-chan Frame
	last   Frame
	tick   time.Duration
	logger *zap.Logger
	mu     sync.Mutex
}

func NewLiveMap(replay *Replay, ps *pubsub.PubSub[Frame], tick time.Duration, logger *zap.Logger) *LiveMap {
	lm := &LiveMap{
		replay: replay,
		ps:     ps,
		frames: ps.Subscribe(Topic(replay.raceID)),
		last:   replay.Frame(0),
		tick:   tick,
		logger: logger,
	}

	go lm.updateFrames()
	return lm
}

func (lm *LiveMap) updateFrames() {
	for f := range lm.frames {
		lm.mu.Lock()
		lm.last = f
		lm.mu.Unlock()
	}
}

// Last returns the most recent frame, the starting grid before the replay
// publishes anything.
func (lm *LiveMap) Last() Frame {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.last
}

func (lm *LiveMap) Stop() {
	lm.ps.Unsubscribe(Topic(lm.replay.raceID), lm.frames)
}

func (lm *LiveMap) websocketHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			lm.logger.Warn("upgrade", zap.Error(err))
			return
		}
		defer c.Close()
		mt, message, err := c.ReadMessage()
		if err != nil {
			lm.logger.Warn("read", zap.Error(err))
			return
		}
		lm.logger.Debug("websocket client", zap.ByteString("message", message), zap.Int("type", mt))
		t := time.NewTicker(lm.tick)
		defer t.Stop()
		for {
			b, err := json.Marshal(lm.Last())
			if err != nil {
				lm.logger.Error("marshal", zap.Error(err))
				return
			}
			_ = c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(mt, b); err != nil {
				lm.logger.Debug("websocket closed", zap.Error(err))
				return
			}
			select {
			case <-t.C:
			case <-r.Context().Done():
				lm.logger.Debug("websocket closed")
				return
			}
		}
	}
}

func (lm *LiveMap) frameHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lm.Last()); err != nil {
			lm.logger.Error("encoding frame", zap.Error(err))
		}
	}
}

func (lm *LiveMap) trackHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		s := lm.replay.state
		var buf bytes.Buffer
		if err := render.WriteSVG(&buf, int(s.Width), int(s.Height), lm.replay.Track()); err != nil {
			lm.logger.Error("rendering track", zap.Error(err))
			http.Error(w, "could not render track", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(buf.Bytes())
	}
}

type Data struct {
	Title        string
	WebSocketURL string
	TrackURL     string
	Width        int
	Height       int
}

func (lm *LiveMap) livemapHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		s := lm.replay.state
		e := Data{
			Title:        lm.replay.race.Name,
			WebSocketURL: "ws://" + r.Host + "/live/ws",
			TrackURL:     "http://" + r.Host + "/live/track.svg",
			Width:        int(s.Width),
			Height:       int(s.Height),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := homeTemplate.Execute(w, e); err != nil {
			lm.logger.Error("executing live template", zap.Error(err))
		}
	}
}

func (lm *LiveMap) AddHandlers(r *mux.Router) {
	r.HandleFunc("/live", lm.livemapHandler()).Methods(http.MethodGet)
	r.HandleFunc("/live/ws", lm.websocketHandler())
	r.HandleFunc("/live/frame", lm.frameHandler()).Methods(http.MethodGet)
	r.HandleFunc("/live/track.svg", lm.trackHandler()).Methods(http.MethodGet)
}

var homeTemplate = template.Must(template.New("").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{ .Title }} LiveMap</title>
</head>
<body>
  <svg id="svgContainer" width="{{ .Width }}" height="{{ .Height }}" xmlns="http://www.w3.org/2000/svg">
    <g id="track"></g>
    <g id="cars"></g>
  </svg>
  <div id="clock"></div>

  <script>
    const trackUrl = '{{ .TrackURL }}';
    const wsUrl = '{{ .WebSocketURL }}';

    const trackLayer = document.getElementById('track');
    const carsLayer = document.getElementById('cars');
    const clock = document.getElementById('clock');

    const cars = new Map();

    const socket = new WebSocket(wsUrl);

    socket.addEventListener('open', (event) => {
      socket.send("start");
    });

    socket.addEventListener('message', (event) => {
      const frame = JSON.parse(event.data);
      const alive = new Set();

      for (const data of frame.cars || []) {
        alive.add(data.code);
        let car = cars.get(data.code);
        if (!car) {
          car = buildCar(data);
          cars.set(data.code, car);
        }
        drawCar(car, data);
      }

      for (const code of Array.from(cars.keys())) {
        if (!alive.has(code)) {
          cars.get(code).car.remove();
          cars.delete(code);
        }
      }

      const leader = (frame.cars || [])[0];
      clock.textContent = leader ? 'Lap ' + leader.lap + (frame.finished ? ' (finished)' : '') : '';
    });

    socket.addEventListener('close', (event) => {
      console.log('WebSocket connection closed:', event);
    });

    socket.addEventListener('error', (event) => {
      console.error('WebSocket connection error:', event);
    });

    function buildCar(data) {
      const carElement = document.createElementNS('http://www.w3.org/2000/svg', 'g');
      const circleElement = document.createElementNS('http://www.w3.org/2000/svg', 'circle');
      const textElement = document.createElementNS('http://www.w3.org/2000/svg', 'text');

      textElement.setAttribute('font-size', '11px');
      textElement.textContent = data.code;
      circleElement.setAttribute('r', 10);
      circleElement.setAttribute('stroke', '#000000');
      circleElement.setAttribute('stroke-width', '1px');
      circleElement.setAttribute('fill', data.color);
      carElement.appendChild(circleElement);
      carElement.appendChild(textElement);

      carsLayer.appendChild(carElement);

      return {circle: circleElement, text: textElement, car: carElement};
    }

    function drawCar(car, data) {
      car.circle.setAttribute('cx', data.x);
      car.circle.setAttribute('cy', data.y);
      car.text.setAttribute('x', data.x + 14);
      car.text.setAttribute('y', data.y + 4);
    }

    async function downloadAndDisplaySVG(url) {
      try {
        const response = await fetch(url);

        if (!response.ok) {
          throw new Error(` + "`Failed to fetch SVG: ${response.statusText}`" + `);
        }

        trackLayer.innerHTML = await response.text();
      } catch (error) {
        console.error(error.message);
      }
    }

    downloadAndDisplaySVG(trackUrl);
  </script>
</body>
</html>
`))
