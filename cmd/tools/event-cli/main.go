package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	nats "github.com/nats-io/nats.go"

	"github.com/annel0/voxel-world/internal/eventbus"
)

const defaultNatsURL = "nats://127.0.0.1:4222"

func main() {
	var (
		natsURL    = flag.String("nats", defaultNatsURL, "Адрес кластера NATS")
		command    = flag.String("cmd", "tail", "Команда: tail, publish")
		eventTypes = flag.String("types", "", "Фильтр по типам событий (через запятую)")
		sources    = flag.String("sources", "", "Фильтр по источникам (через запятую)")
		zone       = flag.String("zone", "", "Идентификатор зоны для publish")
	)
	flag.Parse()

	nc, err := nats.Connect(*natsURL)
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к NATS: %v", err)
	}
	defer nc.Drain()

	switch *command {
	case "tail":
		if err := tailEvents(nc, parseStringList(*eventTypes), parseStringList(*sources)); err != nil {
			log.Fatalf("❌ Tail: %v", err)
		}

	case "publish":
		if *zone == "" {
			log.Fatalf("❌ Для publish нужен флаг -zone")
		}
		if err := publishZoneEvent(nc, *zone); err != nil {
			log.Fatalf("❌ Publish: %v", err)
		}

	default:
		fmt.Printf("❌ Неизвестная команда: %s\n", *command)
		fmt.Println("Доступные команды: tail, publish")
		os.Exit(1)
	}
}

// tailEvents печатает события шины по мере поступления (как tail -f).
func tailEvents(nc *nats.Conn, types, sources []string) error {
	fmt.Printf("🎬 Слежение за событиями (types=%v, sources=%v)\n", types, sources)

	count := 0
	sub, err := nc.Subscribe("events.>", func(msg *nats.Msg) {
		var ev eventbus.Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			fmt.Printf("⚠️  Повреждённое событие на %s: %v\n", msg.Subject, err)
			return
		}
		if !matches(ev.EventType, types) || !matches(ev.Source, sources) {
			return
		}
		printEvent(&ev)
		count++
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Printf("\n📊 Всего событий: %d\n", count)
	return nil
}

// publishZoneEvent отправляет тестовое событие zone.created.
// Удобно для проверки подписчиков без запуска сервера.
func publishZoneEvent(nc *nats.Conn, zone string) error {
	ev, err := eventbus.NewZoneEvent("event-cli", eventbus.EventZoneCreated, zone)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := nc.Publish("events."+ev.EventType, data); err != nil {
		return err
	}
	fmt.Printf("✅ Событие %s опубликовано (id=%s)\n", ev.EventType, ev.ID)
	return nil
}

// printEvent выводит событие в читаемом формате.
func printEvent(ev *eventbus.Envelope) {
	timestamp := ev.Timestamp.Local().Format("15:04:05")
	fmt.Printf("[%s] %s [%s] %s\n", timestamp, ev.Source, ev.EventType, ev.ID)

	switch ev.EventType {
	case eventbus.EventBlockUpdated:
		var p eventbus.BlockUpdatedPayload
		if json.Unmarshal(ev.Payload, &p) == nil {
			fmt.Printf("  Зона: %s Блок: (%d,%d,%d) kind=%d state=%d\n",
				p.Zone, p.Pos.X, p.Pos.Y, p.Pos.Z, p.Kind, p.State)
		}
	case eventbus.EventChunkLoaded:
		var p eventbus.ChunkLoadedPayload
		if json.Unmarshal(ev.Payload, &p) == nil {
			fmt.Printf("  Зона: %s Чанк: (%d,%d,%d)\n", p.Zone, p.Pos.X, p.Pos.Y, p.Pos.Z)
		}
	case eventbus.EventZoneCreated, eventbus.EventZoneRemoved:
		var p eventbus.ZonePayload
		if json.Unmarshal(ev.Payload, &p) == nil {
			fmt.Printf("  Зона: %s\n", p.Zone)
		}
	}
}

// matches проверяет вхождение значения в фильтр (пустой фильтр — всё подходит).
func matches(value string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == value {
			return true
		}
	}
	return false
}

// parseStringList парсит строку с разделителями-запятыми.
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
