package redisplatform

// 键布局
//
//	lb:{category}            ZSET  玩家 ID -> 最好成绩
//	lb:{category}:dates      HASH  玩家 ID -> 最好成绩的 unix 时间
//	friends:{player}         SET   好友 ID
//	player:{player}          HASH  id / alias / display_name
//	achievements:{player}    HASH  成就 ID -> msgpack 记录
//	lock:achievements:{player}

func (p *Platform) leaderboardKey(category string) string {
	return p.client.Key("lb", category)
}

func (p *Platform) datesKey(category string) string {
	return p.client.Key("lb", category, "dates")
}

func (p *Platform) friendsKey(player string) string {
	return p.client.Key("friends", player)
}

func (p *Platform) playerKey(player string) string {
	return p.client.Key("player", player)
}

func (p *Platform) achievementsKey(player string) string {
	return p.client.Key("achievements", player)
}

func (p *Platform) achievementLockKey(player string) string {
	return p.client.Key("lock", "achievements", player)
}

const (
	fieldID          = "id"
	fieldAlias       = "alias"
	fieldDisplayName = "display_name"
)
