package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/palemoky/atlas/internal/protocol"
	"github.com/palemoky/atlas/internal/server/storage"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
	qrSize                  = 256
)

// PlayerStatsResponse 玩家统计接口响应
type PlayerStatsResponse struct {
	*storage.PlayerStats
	Rank    int64   `json:"rank"` // -1 表示未上榜
	WinRate float64 `json:"win_rate"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("响应编码失败: %v", err)
	}
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if s.IsMaintenanceMode() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("MAINTENANCE"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleRooms 可加入的房间列表
func (s *Server) handleRooms(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	rooms := s.roomManager.GetRoomList()
	if rooms == nil {
		rooms = []protocol.RoomListItem{}
	}
	writeJSON(w, http.StatusOK, protocol.RoomListPayload{Rooms: rooms})
}

// handleRoomQR 房间邀请二维码（PNG），内容为带房间号的前端地址
func (s *Server) handleRoomQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID := ps.ByName("id")
	if s.roomManager.GetRoom(roomID) == nil {
		http.NotFound(w, r)
		return
	}

	png, err := qrcode.Encode(s.inviteURL(r, roomID), qrcode.Medium, qrSize)
	if err != nil {
		log.Printf("生成二维码失败: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// handleRoomSnapshot 读取 Redis 中的房间快照，未启用 Redis 或快照不存在时返回 404
func (s *Server) handleRoomSnapshot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	data, err := s.redisStore.LoadRoom(r.Context(), ps.ByName("id"))
	if err != nil {
		log.Printf("读取房间快照失败: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) inviteURL(r *http.Request, roomID string) string {
	base := s.config.Server.PublicURL
	if base == "" {
		base = fmt.Sprintf("http://%s/", r.Host)
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "room=" + url.QueryEscape(roomID)
}

// handleLeaderboard 排行榜，?type=total|daily|weekly&limit=N
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	kind := r.URL.Query().Get("type")
	switch kind {
	case storage.LeaderboardTotal, storage.LeaderboardDaily, storage.LeaderboardWeekly:
	case "":
		kind = storage.LeaderboardTotal
	default:
		http.Error(w, "invalid leaderboard type", http.StatusBadRequest)
		return
	}

	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	entries, err := s.leaderboard.GetLeaderboard(r.Context(), kind, limit)
	if err != nil {
		log.Printf("获取排行榜失败: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handlePlayerStats 玩家统计
func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	playerID := ps.ByName("id")
	stats, err := s.leaderboard.GetPlayerStats(r.Context(), playerID)
	if err != nil {
		log.Printf("获取玩家 %s 统计失败: %v", playerID, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if stats == nil {
		http.NotFound(w, r)
		return
	}

	rank, _ := s.leaderboard.GetPlayerRank(r.Context(), playerID)
	resp := PlayerStatsResponse{PlayerStats: stats, Rank: rank}
	if stats.TotalGames > 0 {
		resp.WinRate = float64(stats.Wins) / float64(stats.TotalGames) * 100
	}
	writeJSON(w, http.StatusOK, resp)
}
