package social

import (
	"sync"
)

// AchievementCache 本会话内已上报成就的内存缓存。
// 上报时先更新缓存再提交平台，调用方需要接受缓存先于平台确认显示"已完成"。
type AchievementCache struct {
	mu      sync.Mutex
	records map[string]AchievementRecord
}

// NewAchievementCache 创建空缓存
func NewAchievementCache() *AchievementCache {
	return &AchievementCache{records: make(map[string]AchievementRecord)}
}

// Get 返回已有记录，不存在时插入并返回零进度记录
func (c *AchievementCache) Get(id string) AchievementRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[id]
	if !ok {
		rec = AchievementRecord{ID: id}
		c.records[id] = rec
	}
	return rec
}

// Set 写入一条记录，进度为限制到 [0, 100] 后的新值，返回写入后的记录
func (c *AchievementCache) Set(in AchievementRecord) AchievementRecord {
	percent := clampPercent(in.PercentComplete)

	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.records[in.ID]
	rec.ID = in.ID
	rec.PercentComplete = percent
	rec.Completed = percent >= 100
	if !in.LastReported.IsZero() {
		rec.LastReported = in.LastReported
	}
	c.records[in.ID] = rec
	return rec
}

// ReplaceAll 整体替换缓存内容，同一 ID 出现多次时以后出现的为准
func (c *AchievementCache) ReplaceAll(records []AchievementRecord) {
	next := make(map[string]AchievementRecord, len(records))
	for _, r := range records {
		r.PercentComplete = clampPercent(r.PercentComplete)
		r.Completed = r.PercentComplete >= 100
		next[r.ID] = r
	}

	c.mu.Lock()
	c.records = next
	c.mu.Unlock()
}

// Clear 清空缓存
func (c *AchievementCache) Clear() {
	c.mu.Lock()
	c.records = make(map[string]AchievementRecord)
	c.mu.Unlock()
}

// Snapshot 返回缓存的拷贝
func (c *AchievementCache) Snapshot() map[string]AchievementRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]AchievementRecord, len(c.records))
	for id, r := range c.records {
		out[id] = r
	}
	return out
}

// Len 返回记录数
func (c *AchievementCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}
