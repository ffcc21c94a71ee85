package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sprite is one ghost appearance. Width and Height size the ghost's collider.
type Sprite struct {
	Name   string  `yaml:"name"`
	Path   string  `yaml:"path"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// SpriteTable is the fixed pool ghost sprites are picked from.
type SpriteTable struct {
	sprites []Sprite
}

type spriteFile struct {
	Sprites []Sprite `yaml:"sprites"`
}

// LoadSpriteTable loads ghost_sprites.yaml.
func LoadSpriteTable(path string) (*SpriteTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sprite table: %w", err)
	}
	return ParseSpriteTable(raw)
}

func ParseSpriteTable(raw []byte) (*SpriteTable, error) {
	var f spriteFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse sprite table: %w", err)
	}
	return NewSpriteTable(f.Sprites)
}

func NewSpriteTable(sprites []Sprite) (*SpriteTable, error) {
	if len(sprites) == 0 {
		return nil, fmt.Errorf("sprite table is empty")
	}
	for i, s := range sprites {
		if s.Path == "" {
			return nil, fmt.Errorf("sprite %d: missing path", i)
		}
		if s.Width <= 0 || s.Height <= 0 {
			return nil, fmt.Errorf("sprite %q: size must be positive", s.Path)
		}
	}
	return &SpriteTable{sprites: sprites}, nil
}

// ForID picks the sprite for a client id. The choice is stable for the
// lifetime of the id: id mod the pool size.
func (t *SpriteTable) ForID(id uint64) Sprite {
	return t.sprites[id%uint64(len(t.sprites))]
}

// Count returns the size of the pool.
func (t *SpriteTable) Count() int {
	return len(t.sprites)
}
