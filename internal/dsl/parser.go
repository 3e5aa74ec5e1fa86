package dsl

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	entityRe = regexp.MustCompile(`^entity\s+(\w+)\s*:\s*(.*)$`)
	fieldRe  = regexp.MustCompile(`^\s*([\w_]+):\s*([^\s#]+)(.*)$`)
)

// splitOptionTokens делит "key column='reg date'" на токены, не рвёт строку внутри кавычек
func splitOptionTokens(s string) []string {
	var out []string
	var buf []rune
	inSingle, inDouble := false, false

	flush := func() {
		if len(buf) > 0 {
			out = append(out, string(buf))
			buf = buf[:0]
		}
	}

	for _, r := range s {
		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			buf = append(buf, r)
		case r == '"' && !inSingle:
			inDouble = !inDouble
			buf = append(buf, r)
		case (r == ' ' || r == '\t') && !inSingle && !inDouble:
			flush()
		default:
			buf = append(buf, r)
		}
	}
	flush()
	return out
}

// parseOptions: "key column=x" -> {"key":"true","column":"x"}. Запятые — тоже разделители.
func parseOptions(raw string) map[string]string {
	opts := map[string]string{}

	// срезать комментарий
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(raw), "options:") {
		raw = strings.TrimSpace(raw[len("options:"):])
	}
	raw = strings.ReplaceAll(raw, ",", " ")

	for _, tok := range splitOptionTokens(raw) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		// флаг без значения → "true"
		if !strings.Contains(tok, "=") {
			opts[strings.ToLower(tok)] = "true"
			continue
		}
		kv := strings.SplitN(tok, "=", 2)
		k := strings.ToLower(strings.TrimSpace(kv[0]))
		v := strings.TrimSpace(kv[1])
		if len(v) >= 2 {
			if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
				v = v[1 : len(v)-1]
			}
		}
		if k != "" {
			opts[k] = v
		}
	}
	return opts
}

// Parse читает сущности из r. name — для сообщений об ошибках.
func Parse(name string, r io.Reader) ([]*Entity, error) {
	var entities []*Entity
	var current *Entity

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// entity <Name>: [table=...]
		if m := entityRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				entities = append(entities, current)
			}
			opts := parseOptions(m[2])
			current = &Entity{Name: m[1], Table: opts["table"]}
			continue
		}
		if current == nil {
			// игнорируем всё вне сущности
			continue
		}

		m := fieldRe.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("%s:%d: cannot parse %q", name, lineNo, line)
		}
		for _, f := range current.Fields {
			if strings.EqualFold(f.Name, m[1]) {
				return nil, fmt.Errorf("%s:%d: %s: duplicate field %q", name, lineNo, current.Name, m[1])
			}
		}
		current.Fields = append(current.Fields, Field{
			Name:    m[1],
			Type:    normalizeType(m[2]),
			Options: parseOptions(m[3]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if current != nil {
		entities = append(entities, current)
	}
	return entities, nil
}

// LoadEntities читает один .dsl файл
func LoadEntities(path string) ([]*Entity, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(path, file)
}

// LoadAllEntities обходит каталог и собирает все сущности по имени.
func LoadAllEntities(root string) (map[string]*Entity, error) {
	result := make(map[string]*Entity)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".dsl") {
			return nil
		}

		ents, err := LoadEntities(path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		for _, e := range ents {
			key := strings.ToLower(e.Name)
			if _, exists := result[key]; exists {
				return fmt.Errorf("duplicate entity %q (file: %s)", e.Name, path)
			}
			result[key] = e
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
