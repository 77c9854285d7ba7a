package redisplatform

import (
	"context"
	"sort"

	"github.com/lk2023060901/xdooria-social/pkg/social"
	"github.com/lk2023060901/xdooria-social/pkg/util/conc"
)

// FriendIDs 返回本地玩家的好友 ID，按字典序
func (p *Platform) FriendIDs(ctx context.Context) *conc.Future[[]string] {
	return submit(p, ctx, "friend_ids", func(ctx context.Context) ([]string, error) {
		uid, err := p.localID()
		if err != nil {
			return nil, err
		}
		ids, err := p.client.SMembers(ctx, p.friendsKey(uid))
		if err != nil {
			return nil, err
		}
		sort.Strings(ids)
		return ids, nil
	})
}

// LoadPlayers 批量读取玩家资料，不存在的 ID 被忽略
func (p *Platform) LoadPlayers(ctx context.Context, ids []string) *conc.Future[[]social.PlayerRef] {
	ids = append([]string(nil), ids...)
	return submit(p, ctx, "load_players", func(ctx context.Context) ([]social.PlayerRef, error) {
		uid, err := p.localID()
		if err != nil {
			return nil, err
		}

		players, err := p.loadProfiles(ctx, ids)
		if err != nil {
			return nil, err
		}

		friends, err := p.client.SMembers(ctx, p.friendsKey(uid))
		if err != nil {
			return nil, err
		}
		isFriend := make(map[string]bool, len(friends))
		for _, f := range friends {
			isFriend[f] = true
		}
		for i := range players {
			players[i].IsFriend = isFriend[players[i].ID]
		}
		return players, nil
	})
}

// loadProfiles 优先读缓存，未命中的资料一次往返读取
func (p *Platform) loadProfiles(ctx context.Context, ids []string) ([]social.PlayerRef, error) {
	if len(ids) == 0 {
		return []social.PlayerRef{}, nil
	}

	found := make(map[string]social.PlayerRef, len(ids))
	misses := make([]string, 0, len(ids))
	for _, id := range ids {
		if player, ok := p.profiles.Get(id); ok {
			found[id] = player
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		keys := make([]string, len(misses))
		for i, id := range misses {
			keys[i] = p.playerKey(id)
		}
		hashes, err := p.client.HGetAllMulti(ctx, keys...)
		if err != nil {
			return nil, err
		}
		for i, h := range hashes {
			if len(h) == 0 {
				continue
			}
			player := social.PlayerRef{
				ID:          h[fieldID],
				Alias:       h[fieldAlias],
				DisplayName: h[fieldDisplayName],
			}
			if player.ID == "" {
				player.ID = misses[i]
			}
			p.profiles.Set(misses[i], player)
			found[misses[i]] = player
		}
	}

	// 保持输入顺序，不存在的 ID 被跳过
	players := make([]social.PlayerRef, 0, len(found))
	for _, id := range ids {
		if player, ok := found[id]; ok {
			players = append(players, player)
		}
	}
	return players, nil
}
