package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	qrcode "github.com/skip2/go-qrcode"

	"shadowtown/internal/config"
	"shadowtown/internal/server"
	serverstore "shadowtown/internal/server/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serverEnv 由環境變數載入，命令列旗標可再覆寫
type serverEnv struct {
	Addr      string `env:"SHADOWTOWN_ADDR" envDefault:":8080"`
	WebDir    string `env:"SHADOWTOWN_WEB_DIR" envDefault:"web"`
	DataDir   string `env:"SHADOWTOWN_DATA_DIR" envDefault:"data"`
	RulesPath string `env:"SHADOWTOWN_RULES" envDefault:"config/rules.yaml"`
	PublicURL string `env:"SHADOWTOWN_PUBLIC_URL"`
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type profileResponse struct {
	Username string                          `json:"username"`
	Stats    serverstore.MatchStats          `json:"stats"`
	Matches  []serverstore.MatchHistoryEntry `json:"matches"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("未載入 .env 檔案，沿用系統環境變數")
	}

	var envCfg serverEnv
	if err := env.Parse(&envCfg); err != nil {
		log.Fatalf("解析環境變數失敗: %v", err)
	}

	addr := flag.String("addr", envCfg.Addr, "HTTP 服務監聽位址")
	webDir := flag.String("web", envCfg.WebDir, "前端靜態資源目錄")
	dataDir := flag.String("data", envCfg.DataDir, "資料存放目錄")
	rulesPath := flag.String("rules", envCfg.RulesPath, "對局規則 YAML 檔路徑")
	publicURL := flag.String("public-url", envCfg.PublicURL, "對外公開網址，供 QR code 組合加入連結")
	flag.Parse()

	rules, err := config.Load(*rulesPath)
	if err != nil {
		log.Fatalf("載入對局規則失敗: %v", err)
	}

	dbPath := filepath.Join(*dataDir, "shadowtown.db")
	store, err := serverstore.New(dbPath)
	if err != nil {
		log.Fatalf("初始化資料庫失敗: %v", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Printf("關閉資料庫時發生錯誤: %v", cerr)
		}
	}()

	hub := server.NewHub(rules, store)

	http.HandleFunc("/api/register", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "僅支援 POST")
			return
		}
		var req authRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "請提供帳號與密碼")
			return
		}
		user, err := store.CreateUser(req.Username, req.Password)
		if err != nil {
			status := http.StatusBadRequest
			if strings.Contains(err.Error(), "已存在") {
				status = http.StatusConflict
			}
			writeError(w, status, err.Error())
			return
		}
		token, err := store.CreateSession(user.ID, 0)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "建立會話失敗")
			return
		}
		writeJSON(w, http.StatusOK, authResponse{Token: token, Username: user.Username})
	})

	http.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "僅支援 POST")
			return
		}
		var req authRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "請提供帳號與密碼")
			return
		}
		user, err := store.Authenticate(req.Username, req.Password)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		token, err := store.CreateSession(user.ID, 0)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "建立會話失敗")
			return
		}
		writeJSON(w, http.StatusOK, authResponse{Token: token, Username: user.Username})
	})

	http.HandleFunc("/api/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "僅支援 GET")
			return
		}
		token := parseAuthHeader(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "缺少會話資訊")
			return
		}
		user, err := store.GetUserBySession(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		stats, err := store.MatchStatsFor(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		matches, err := store.MatchHistory(user.ID, 10)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, profileResponse{Username: user.Username, Stats: stats, Matches: matches})
	})

	http.HandleFunc("/api/matches/recent", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "僅支援 GET")
			return
		}
		records, err := store.RecentMatches(20)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"matches": records})
	})

	// 房號 QR code，掃描後直接帶 room 參數進入加入流程
	http.HandleFunc("/api/room-qr", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "僅支援 GET")
			return
		}
		roomID := strings.TrimSpace(r.URL.Query().Get("room"))
		if roomID == "" {
			writeError(w, http.StatusBadRequest, "缺少房間 ID")
			return
		}
		if _, ok := hub.RoomByID(roomID); !ok {
			writeError(w, http.StatusNotFound, "房間不存在")
			return
		}
		base := strings.TrimRight(*publicURL, "/")
		if base == "" {
			base = "http://" + r.Host
		}
		joinURL := fmt.Sprintf("%s/?room=%s", base, url.QueryEscape(strings.ToUpper(roomID)))
		png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "產生 QR code 失敗")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	})

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		authToken := strings.TrimSpace(r.URL.Query().Get("auth"))
		if authToken == "" {
			authToken = parseAuthHeader(r)
		}
		if authToken == "" {
			http.Error(w, "未登入", http.StatusUnauthorized)
			return
		}

		user, err := store.GetUserBySession(authToken)
		if err != nil {
			http.Error(w, "會話無效", http.StatusUnauthorized)
			return
		}

		roomID := strings.TrimSpace(r.URL.Query().Get("room"))
		displayName := strings.TrimSpace(r.URL.Query().Get("name"))
		if displayName == "" {
			displayName = user.Username
		}
		if len(displayName) > 24 {
			displayName = displayName[:24]
		}
		seatToken := strings.TrimSpace(r.URL.Query().Get("token"))
		if seatToken == "" {
			seatToken = fmt.Sprintf("seat-%d", time.Now().UnixNano())
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket 升級失敗: %v", err)
			return
		}

		client := server.NewWebClient(conn, hub, user.ID, user.Username, displayName, seatToken)
		hub.RegisterLobbyClient(client)
		if roomID != "" {
			if err := hub.JoinRoom(roomID, client); err != nil {
				_ = conn.WriteJSON(server.ServerMessage{Type: "error", Payload: server.ErrorPayload{Message: err.Error()}})
			}
		}

		go client.WritePump()
		client.ReadPump()
	})

	staticDir := http.Dir(filepath.Join(*webDir, "static"))
	staticFS := http.FileServer(staticDir)
	http.Handle("/static/", http.StripPrefix("/static/", staticFS))

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(*webDir, "index.html"))
	})

	log.Printf("《暗影小鎮》伺服器啟動於 %s", *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatalf("HTTP 服務啟動失敗: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("回傳 JSON 失敗: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func parseAuthHeader(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		if cookie, err := r.Cookie("session_token"); err == nil {
			return strings.TrimSpace(cookie.Value)
		}
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
