package gallery

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/jinzhu/copier"

	"github.com/saveblush/gallery-node/core/config"
	"github.com/saveblush/gallery-node/core/utils"
	"github.com/saveblush/gallery-node/core/utils/logger"
	"github.com/saveblush/gallery-node/pgk/boorusource"
	"github.com/saveblush/gallery-node/pgk/cron"
)

const (
	defaultMessageLengthLimit = 64 * 1024

	// Time allowed to read the next pong message from the client.
	pongWait = 60 * time.Second
)

// NodeInfo served on plain http requests
type NodeInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	BooruURL    string `json:"booru_url"`
	Online      bool   `json:"online"`
}

type Gallery struct {
	serveMux *http.ServeMux
	upgrader websocket.Upgrader
	source   boorusource.Service
	cron     cron.Service

	Info               *NodeInfo
	HandshakeTimeout   time.Duration
	MessageLengthLimit int64
}

// NewGallery new gallery surface
func NewGallery(source boorusource.Service, cron cron.Service) *Gallery {
	info := &NodeInfo{}
	copier.Copy(info, &config.CF.App)
	info.Environment = string(config.CF.App.Environment)
	info.BooruURL = config.CF.Booru.BaseURL

	gl := &Gallery{
		serveMux: &http.ServeMux{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		source: source,
		cron:   cron,

		Info:               info,
		HandshakeTimeout:   90 * time.Second,
		MessageLengthLimit: defaultMessageLengthLimit,
	}

	return gl
}

func (gl *Gallery) Serve() *http.ServeMux {
	mux := gl.serveMux
	mux.HandleFunc("/", gl.handleRequest)

	return mux
}

// handleRequest handle request
func (gl *Gallery) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && r.Header.Get("Upgrade") == "websocket" {
		gl.handleWebsocket(w, r)
		return
	}

	if len(r.Header.Get("Upgrade")) > 0 {
		http.Error(w, "Invalid Upgrade Header", http.StatusBadRequest)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		gl.showJSONInfo(w)
	} else {
		gl.showInfo(w)
	}
}

// handleWebsocket one websocket connection binds one gallery node session
func (gl *Gallery) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	up := gl.upgrader
	up.HandshakeTimeout = gl.HandshakeTimeout
	ws, err := up.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			logger.Log.Errorf("ws upgrade error: %s", err)
		}
		return
	}

	conn := &Conn{
		Conn: ws,
		ip:   utils.GetIP(r),
	}
	logger.Log.Infof("[connected] %s %s", conn.IP(), utils.GetUserAgent(r))

	nodeKey := r.URL.Query().Get("node")
	if nodeKey == "" {
		nodeKey = conn.IP()
	}

	sess := newSession(conn, nodeKey, gl.source, gl.cron)

	go func() {
		defer func() {
			conn.Close()
			logger.Log.Infof("[disconnect] %s", conn.IP())
		}()

		sess.init()

		conn.SetReadLimit(gl.MessageLengthLimit)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(
					err,
					websocket.CloseNormalClosure,
					websocket.CloseAbnormalClosure,
					websocket.CloseNoStatusReceived,
					websocket.CloseGoingAway,
				) {
					logger.Log.Warnf("unexpected close error from %s: %s", conn.IP(), err)
				}
				break
			}

			if mt != websocket.TextMessage {
				logger.Log.Errorf("message is not UTF-8. %s disconnecting...", conn.IP())
				break
			}

			// commands run serially: the session's state is single-threaded
			// by design, outstanding work is network I/O only
			err = sess.handleCommand(msg)
			if err != nil {
				logger.Log.Errorf("handle command error: %s", err)
			}
		}
	}()
}

// showJSONInfo show node info as json
func (gl *Gallery) showJSONInfo(w http.ResponseWriter) {
	gl.Info.Online = gl.cron.Online()
	b, err := json.Marshal(&gl.Info)
	if err != nil {
		fmt.Fprintf(w, "{}")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	_, _ = w.Write(b)
}

// showInfo show plain text info
func (gl *Gallery) showInfo(w http.ResponseWriter) {
	var str []string
	str = append(str, fmt.Sprintf("Name: %s", gl.Info.Name))
	str = append(str, fmt.Sprintf("Version: %s", gl.Info.Version))
	str = append(str, fmt.Sprintf("Source: %s", gl.Info.BooruURL))
	str = append(str, fmt.Sprintf("Online: %v", gl.cron.Online()))
	fmt.Fprint(w, strings.Join(str, "\n"))
}

type Conn struct {
	*websocket.Conn
	ip string
}

// IP returns the client's ip address
func (conn *Conn) IP() string {
	return conn.ip
}
