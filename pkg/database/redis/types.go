package redis

// PoolStats 连接池统计信息
type PoolStats struct {
	Hits       uint32
	Misses     uint32
	Timeouts   uint32
	TotalConns uint32
	IdleConns  uint32
	StaleConns uint32
}

// ZItem 有序集合元素
type ZItem struct {
	Member string
	Score  float64
}
