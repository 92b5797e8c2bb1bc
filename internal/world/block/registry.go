package block

import (
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[Type]*Kind)
	byName     = make(map[string]*Kind)
)

// Register добавляет тип блока в регистр.
// Повторная регистрация того же ID заменяет описание.
func Register(kind *Kind) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if old, ok := registry[kind.ID]; ok {
		delete(byName, old.Name)
	}
	registry[kind.ID] = kind
	byName[kind.Name] = kind
}

// Get возвращает описание для указанного ID
func Get(id Type) (*Kind, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kind, exists := registry[id]
	return kind, exists
}

// ByName возвращает описание по имени типа
func ByName(name string) (*Kind, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kind, exists := byName[name]
	return kind, exists
}

// IsValid проверяет, является ли ID зарегистрированным твёрдым блоком
func IsValid(id Type) bool {
	if id == Air {
		return false
	}
	_, exists := Get(id)
	return exists
}

// All возвращает все зарегистрированные типы, упорядоченные по ID
func All() []*Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := make([]*Kind, 0, len(registry))
	for _, k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].ID < kinds[j].ID })
	return kinds
}

// TextureClasses возвращает все классы текстур, используемые зарегистрированными блоками
func TextureClasses() []TextureClass {
	seen := make(map[TextureClass]struct{})
	var classes []TextureClass
	for _, k := range All() {
		for _, c := range k.Textures {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			classes = append(classes, c)
		}
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}
