package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"github.com/vuongle2609/Minecraft/internal/config"
	"github.com/vuongle2609/Minecraft/internal/storage"
	"github.com/vuongle2609/Minecraft/internal/vec"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к YAML конфигурации (или SANDBOX_CONFIG)")
		backend    = flag.String("backend", "", "Хранилище: badger, redis (по умолчанию из конфигурации)")
		path       = flag.String("path", "", "Каталог badger (по умолчанию из конфигурации)")
		command    = flag.String("cmd", "list", "Команда: list, dump, export, import")
		chunk      = flag.String("chunk", "0_0", "Чанк для dump в виде cx_cz")
		file       = flag.String("file", "-", "Файл снимка для export/import; - означает stdout/stdin")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if *path != "" {
		cfg.Storage.Path = *path
	}

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Fatalf("❌ Не удалось открыть хранилище: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch *command {
	case "list":
		err = listChunks(ctx, store, os.Stdout)
	case "dump":
		err = dumpChunk(ctx, store, *chunk, os.Stdout)
	case "export":
		err = exportSnapshot(ctx, store, *file)
	case "import":
		err = importSnapshot(ctx, store, *file)
	default:
		log.Fatalf("❌ Неизвестная команда: %s", *command)
	}
	if err != nil {
		log.Fatalf("❌ %s: %v", *command, err)
	}
}

func listChunks(ctx context.Context, store storage.ChunkStore, w io.Writer) error {
	coords, err := store.ListChunks(ctx)
	if err != nil {
		return err
	}
	for _, c := range coords {
		records, _, err := store.LoadChunk(ctx, c)
		if err != nil {
			return err
		}
		tombstones := 0
		for _, r := range records {
			if r.Tombstone() {
				tombstones++
			}
		}
		fmt.Fprintf(w, "%s\tзаписей=%d\tнадгробий=%d\n", c.Key(), len(records), tombstones)
	}
	fmt.Fprintf(w, "Всего чанков: %d\n", len(coords))
	return nil
}

func dumpChunk(ctx context.Context, store storage.ChunkStore, key string, w io.Writer) error {
	coord, err := vec.ParseChunkKey(key)
	if err != nil {
		return err
	}
	records, found, err := store.LoadChunk(ctx, coord)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("чанк %s не сохранён", key)
	}

	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r := records[k]
		if r.Tombstone() {
			fmt.Fprintf(w, "%s\t(удалён)\n", k)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", k, r.Type())
	}
	return nil
}

func exportSnapshot(ctx context.Context, store storage.ChunkStore, file string) error {
	snap, err := storage.ExportSnapshot(ctx, store)
	if err != nil {
		return err
	}
	if file == "-" {
		return storage.WriteSnapshot(os.Stdout, snap)
	}
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := storage.WriteSnapshot(f, snap); err != nil {
		return err
	}
	log.Printf("✅ Экспортировано чанков: %d -> %s", len(snap), file)
	return nil
}

func importSnapshot(ctx context.Context, store storage.ChunkStore, file string) error {
	var r io.Reader = os.Stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	snap, err := storage.ReadSnapshot(r)
	if err != nil {
		return err
	}
	if err := storage.ImportSnapshot(ctx, store, snap); err != nil {
		return err
	}
	log.Printf("✅ Импортировано чанков: %d", len(snap))
	return nil
}
