package app

import "strings"

// Client-side routes. They mirror the backend resources one to one.
const (
	RouteHome        = "/"
	RouteLogin       = "/login"
	RouteRegister    = "/register"
	RouteChapters    = "/chapters"
	RouteScores      = "/scores"
	RouteBadges      = "/badges"
	RouteDuelHome    = "/duel"
	RouteMultiplayer = "/multiplayer"
	RouteAdmin       = "/admin"
)

func DuelWaitRoute(id string) string   { return "/duel/wait/" + id }
func DuelPlayRoute(id string) string   { return "/duel/play/" + id }
func DuelResultRoute(id string) string { return "/duel/result/" + id }
func RoomJoinRoute(code string) string { return "/room/" + code }
func RoomLobbyRoute(id string) string  { return "/room/lobby/" + id }
func RoomPlayRoute(id string) string   { return "/room/play/" + id }
func RoomResultRoute(id string) string { return "/room/result/" + id }
func ChapterQuizRoute(id string) string {
	return "/chapters/" + id + "/quiz"
}

// Screen names returned by ParseRoute.
const (
	ScreenHome        = "home"
	ScreenLogin       = "login"
	ScreenChapters    = "chapters"
	ScreenChapterQuiz = "chapter-quiz"
	ScreenScores      = "scores"
	ScreenBadges      = "badges"
	ScreenDuelHome    = "duel"
	ScreenDuelWait    = "duel-wait"
	ScreenDuelPlay    = "duel-play"
	ScreenDuelResult  = "duel-result"
	ScreenMultiplayer = "multiplayer"
	ScreenRoomJoin    = "room-join"
	ScreenRoomLobby   = "room-lobby"
	ScreenRoomPlay    = "room-play"
	ScreenRoomResult  = "room-result"
	ScreenAdmin       = "admin"
)

// Route is a parsed client route.
type Route struct {
	Screen string
	Param  string
}

// ParseRoute maps a path to its screen. Unknown paths resolve to home, the way
// the catch-all route does.
func ParseRoute(path string) Route {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "":
		return Route{Screen: ScreenHome}
	case len(parts) == 1:
		switch parts[0] {
		case "login", "register":
			return Route{Screen: ScreenLogin}
		case "chapters":
			return Route{Screen: ScreenChapters}
		case "scores":
			return Route{Screen: ScreenScores}
		case "badges":
			return Route{Screen: ScreenBadges}
		case "duel":
			return Route{Screen: ScreenDuelHome}
		case "multiplayer":
			return Route{Screen: ScreenMultiplayer}
		case "admin":
			return Route{Screen: ScreenAdmin}
		}
	case len(parts) == 2 && parts[0] == "room":
		return Route{Screen: ScreenRoomJoin, Param: parts[1]}
	case len(parts) == 3 && parts[0] == "chapters" && parts[2] == "quiz":
		return Route{Screen: ScreenChapterQuiz, Param: parts[1]}
	case len(parts) == 3 && parts[0] == "duel":
		switch parts[1] {
		case "wait":
			return Route{Screen: ScreenDuelWait, Param: parts[2]}
		case "play":
			return Route{Screen: ScreenDuelPlay, Param: parts[2]}
		case "result":
			return Route{Screen: ScreenDuelResult, Param: parts[2]}
		}
	case len(parts) == 3 && parts[0] == "room":
		switch parts[1] {
		case "lobby":
			return Route{Screen: ScreenRoomLobby, Param: parts[2]}
		case "play":
			return Route{Screen: ScreenRoomPlay, Param: parts[2]}
		case "result":
			return Route{Screen: ScreenRoomResult, Param: parts[2]}
		}
	}
	return Route{Screen: ScreenHome}
}

// JoinURL is the shareable link that opens the join screen for a room.
func JoinURL(publicURL, joinCode string) string {
	return strings.TrimRight(publicURL, "/") + RoomJoinRoute(joinCode)
}
