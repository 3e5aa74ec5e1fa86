// api/names.go
package api

import "rowmap/internal/dsl"

// NormalizeEntityName ищет сущность по имени или по имени таблицы, регистр не важен.
// Возвращает ключ в Schemas.
func (s *Storage) NormalizeEntityName(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dsl.Lookup(s.Schemas, name)
}
