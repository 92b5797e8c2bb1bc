package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// Record значение ячейки чанка: тип блока или надгробие.
// Надгробие (Air) отмечает явно удалённый блок, чтобы повторная загрузка
// чанка не вернула его.
type Record block.Type

// Tombstone сообщает, является ли запись надгробием
func (r Record) Tombstone() bool {
	return block.Type(r) == block.Air
}

// Type возвращает тип блока записи
func (r Record) Type() block.Type {
	return block.Type(r)
}

// MarshalJSON пишет тип именем, надгробие числом 0
func (r Record) MarshalJSON() ([]byte, error) {
	if r.Tombstone() {
		return []byte("0"), nil
	}
	return []byte(strconv.Quote(block.Type(r).String())), nil
}

// UnmarshalJSON принимает имя типа, числовой ID или 0
func (r *Record) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		kind, ok := block.ByName(name)
		if !ok {
			return fmt.Errorf("неизвестный тип блока %q", name)
		}
		*r = Record(kind.ID)
		return nil
	}

	id, err := strconv.ParseUint(string(data), 10, 16)
	if err != nil {
		return fmt.Errorf("некорректная запись блока %s: %w", data, err)
	}
	*r = Record(id)
	return nil
}

// Records записи одного чанка по ключу позиции "x_y_z"
type Records map[string]Record

// RecordsFromCells строит записи из карты позиций
func RecordsFromCells(cells map[vec.Vec3]block.Type) Records {
	out := make(Records, len(cells))
	for pos, t := range cells {
		out[pos.Key()] = Record(t)
	}
	return out
}

// Cells разбирает ключи позиций обратно в координаты
func (r Records) Cells() (map[vec.Vec3]block.Type, error) {
	out := make(map[vec.Vec3]block.Type, len(r))
	for key, rec := range r {
		pos, err := vec.ParseKey(key)
		if err != nil {
			return nil, err
		}
		out[pos] = rec.Type()
	}
	return out, nil
}

// Clone возвращает независимую копию записей
func (r Records) Clone() Records {
	out := make(Records, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Snapshot форма сохранённого мира: ключ чанка "cx_cz" -> записи
type Snapshot map[string]Records
