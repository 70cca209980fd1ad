// Package cache provides a write-back data cache that can sit between the bus
// and a memory device, using Akita cache components for tag management.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/rv32sim/emu"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int `json:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size"`
	// HitLatency in cycles
	HitLatency uint64 `json:"hit_latency"`
	// MissLatency in cycles (includes memory access time)
	MissLatency uint64 `json:"miss_latency"`
}

// DefaultL1DConfig returns the default data cache configuration for a small
// in-order RV32 core: 16KB, 4-way, 32B lines.
func DefaultL1DConfig() Config {
	return Config{
		Size:          16 * 1024,
		Associativity: 4,
		BlockSize:     32,
		HitLatency:    1,
		MissLatency:   20,
	}
}

// Validate checks that the geometry describes at least one set and that the
// block size is a power of two no smaller than a word.
func (c Config) Validate() error {
	if c.BlockSize < 4 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("block_size must be a power of two >= 4, got %d", c.BlockSize)
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be > 0")
	}
	if c.Size <= 0 || c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("size must be a positive multiple of associativity*block_size")
	}
	return nil
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the number of cycles this access takes.
	Latency uint64
	// Data is the data read (for load operations).
	Data uint32
	// Evicted is true if a valid block was replaced.
	Evicted bool
	// EvictedAddr is the address of the evicted block (if Evicted is true).
	EvictedAddr uint32
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// Cache is a set-associative write-back, write-allocate cache in front of
// a backing device.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage - indexed by (setID * associativity + wayID)
	dataStore [][]byte

	stats Statistics

	backing emu.Device
}

// New creates a new cache with the given configuration.
func New(config Config, backing emu.Device) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr uint32) uint64 {
	bs := uint64(c.config.BlockSize)
	return (uint64(addr) / bs) * bs
}

// lookup returns the valid block holding addr, or nil.
func (c *Cache) lookup(addr uint32) *akitacache.Block {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		return block
	}
	return nil
}

// Read performs a cache read of size bytes.
func (c *Cache) Read(addr uint32, size int) (AccessResult, error) {
	c.stats.Reads++

	block := c.lookup(addr)
	if block == nil {
		c.stats.Misses++
		res, block, err := c.fill(addr)
		if err != nil {
			return res, err
		}
		res.Data = extractData(c.dataStore[c.blockIndex(block)], c.offset(addr), size)
		return res, nil
	}

	c.stats.Hits++
	c.directory.Visit(block)

	return AccessResult{
		Hit:     true,
		Latency: c.config.HitLatency,
		Data:    extractData(c.dataStore[c.blockIndex(block)], c.offset(addr), size),
	}, nil
}

// Write performs a cache write of the low size bytes of data.
// On a miss the block is fetched first.
func (c *Cache) Write(addr uint32, size int, data uint32) (AccessResult, error) {
	c.stats.Writes++

	res := AccessResult{Hit: true, Latency: c.config.HitLatency}
	block := c.lookup(addr)
	if block == nil {
		c.stats.Misses++
		var err error
		res, block, err = c.fill(addr)
		if err != nil {
			return res, err
		}
	} else {
		c.stats.Hits++
		c.directory.Visit(block)
	}

	storeData(c.dataStore[c.blockIndex(block)], c.offset(addr), size, data)
	block.IsDirty = true

	return res, nil
}

func (c *Cache) offset(addr uint32) uint64 {
	return uint64(addr) % uint64(c.config.BlockSize)
}

// fill brings the block holding addr into the cache, evicting and writing
// back a victim if needed. On error the cache still holds consistent data.
func (c *Cache) fill(addr uint32) (AccessResult, *akitacache.Block, error) {
	result := AccessResult{
		Hit:     false,
		Latency: c.config.MissLatency,
	}

	blockAddr := c.blockAddr(addr)

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return result, nil, fmt.Errorf("no victim for block 0x%X", blockAddr)
	}

	victimData := c.dataStore[c.blockIndex(victim)]

	if victim.IsValid && victim.IsDirty {
		if err := c.writeBlock(victim.Tag, victimData); err != nil {
			return result, nil, fmt.Errorf("write back block 0x%X: %w", victim.Tag, err)
		}
		c.stats.Writebacks++
		victim.IsDirty = false
	}

	newData, err := c.readBlock(blockAddr)
	if err != nil {
		return result, nil, fmt.Errorf("fill block 0x%X: %w", blockAddr, err)
	}

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = uint32(victim.Tag)
	}

	copy(victimData, newData)
	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return result, victim, nil
}

func (c *Cache) readBlock(blockAddr uint64) ([]byte, error) {
	data := make([]byte, c.config.BlockSize)
	for i := 0; i < len(data); i += 4 {
		word, err := c.backing.Read(uint32(blockAddr)+uint32(i), 4)
		if err != nil {
			return nil, err
		}
		storeData(data, uint64(i), 4, word)
	}
	return data, nil
}

func (c *Cache) writeBlock(blockAddr uint64, data []byte) error {
	for i := 0; i < len(data); i += 4 {
		word := extractData(data, uint64(i), 4)
		if err := c.backing.Write(uint32(blockAddr)+uint32(i), 4, word); err != nil {
			return err
		}
	}
	return nil
}

// Invalidate marks a cache line as invalid without writing it back.
func (c *Cache) Invalidate(addr uint32) {
	if block := c.lookup(addr); block != nil {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush writes back all dirty blocks and invalidates every block.
// It stops at the first backing error.
func (c *Cache) Flush() error {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				if err := c.writeBlock(block.Tag, c.dataStore[c.blockIndex(block)]); err != nil {
					return fmt.Errorf("flush block 0x%X: %w", block.Tag, err)
				}
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
	return nil
}

// Reset invalidates all cache lines without writeback.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}

func extractData(data []byte, offset uint64, size int) uint32 {
	if data == nil || int(offset)+size > len(data) {
		return 0
	}

	var result uint32
	for i := 0; i < size; i++ {
		result |= uint32(data[int(offset)+i]) << (i * 8)
	}
	return result
}

func storeData(data []byte, offset uint64, size int, value uint32) {
	if data == nil || int(offset)+size > len(data) {
		return
	}

	for i := 0; i < size; i++ {
		data[int(offset)+i] = byte(value >> (i * 8))
	}
}
