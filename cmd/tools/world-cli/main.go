package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/annel0/blockverse/internal/network"
	"github.com/annel0/blockverse/internal/protocol"
	"github.com/annel0/blockverse/internal/world"
)

const defaultServerAddr = "localhost:25565"

func main() {
	var (
		command    = flag.String("cmd", "info", "Command: info, regions, block, status")
		worldDir   = flag.String("world", "world", "World directory")
		serverAddr = flag.String("server", defaultServerAddr, "Server address for status")
		x          = flag.Int("x", 0, "Block X")
		y          = flag.Int("y", 0, "Block Y")
		z          = flag.Int("z", 0, "Block Z")
		timeout    = flag.Duration("timeout", 5*time.Second, "Network timeout")
	)
	flag.Parse()

	var err error
	switch *command {
	case "info":
		err = showInfo(*worldDir)
	case "regions":
		err = listRegions(*worldDir)
	case "block":
		err = showBlock(*worldDir, *x, *y, *z)
	case "status":
		err = pingServer(*serverAddr, *timeout)
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: info, regions, block, status")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

func loadMeta(dir string) (world.Meta, error) {
	meta, existed, err := world.LoadMeta(filepath.Join(dir, world.MetaFileName), world.Meta{})
	if err != nil {
		return meta, err
	}
	if !existed {
		return meta, fmt.Errorf("%s: no %s", dir, world.MetaFileName)
	}
	return meta, nil
}

// showInfo выводит метаданные мира без его открытия
func showInfo(dir string) error {
	meta, err := loadMeta(dir)
	if err != nil {
		return err
	}

	fmt.Printf("🌍 World %s\n", dir)
	fmt.Printf("   Seed:      %d\n", meta.Seed)
	fmt.Printf("   Generator: %s\n", meta.Generator)
	fmt.Printf("   Format:    %s / %s\n", meta.SaveFormat, meta.Compression)
	fmt.Printf("   Dimension: min_y=%d height=%d\n", meta.Dimension.MinY, meta.Dimension.Height)
	fmt.Printf("   Ticks:     %d\n", meta.Ticks)
	return nil
}

func listRegions(dir string) error {
	entries, err := os.ReadDir(filepath.Join(dir, world.RegionsDir))
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Println(name)
	}
	fmt.Printf("\n📊 Total regions: %d\n", len(names))
	return nil
}

// showBlock читает блок из сохраненного мира; мир не сохраняется, чанки не генерируются
func showBlock(dir string, x, y, z int) error {
	meta, err := loadMeta(dir)
	if err != nil {
		return err
	}
	w, err := world.Open(dir, meta)
	if err != nil {
		return err
	}
	defer w.Close()

	id, ok, err := w.Block(x, y, z)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Printf("%d %d %d: minecraft:air\n", x, y, z)
		return nil
	}
	fmt.Printf("%d %d %d: %s\n", x, y, z, id)
	return nil
}

// pingServer Server List Ping: статус и задержка
func pingServer(addr string, timeout time.Duration) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return fmt.Errorf("port %q: %w", portStr, err)
	}

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}

	send := func(p protocol.Encoder) error {
		data, err := protocol.Marshal(p)
		if err != nil {
			return err
		}
		_, err = conn.Write(data)
		return err
	}
	r := bufio.NewReader(conn)
	recv := func(p protocol.Decoder) error {
		f, err := protocol.ReadFrame(r)
		if err != nil {
			return err
		}
		return protocol.Unmarshal(f, p)
	}

	if err := send(&protocol.Handshake{
		ProtocolVersion: protocol.ProtocolVersion,
		ServerAddress:   host,
		ServerPort:      uint16(port),
		NextState:       protocol.IntentStatus,
	}); err != nil {
		return err
	}
	if err := send(&protocol.StatusRequest{}); err != nil {
		return err
	}
	var resp protocol.StatusResponse
	if err := recv(&resp); err != nil {
		return err
	}

	var status network.ServerListPing
	if err := json.Unmarshal([]byte(resp.JSON), &status); err != nil {
		return fmt.Errorf("status json: %w", err)
	}

	start := time.Now()
	if err := send(&protocol.PingRequest{Payload: start.UnixMilli()}); err != nil {
		return err
	}
	var pong protocol.PongResponse
	if err := recv(&pong); err != nil {
		return err
	}

	fmt.Printf("🎮 %s\n", status.Description.ClearString())
	fmt.Printf("   Version: %s (protocol %d)\n", status.Version.Name, status.Version.Protocol)
	fmt.Printf("   Players: %d/%d\n", status.Players.Online, status.Players.Max)
	for _, p := range status.Players.Sample {
		fmt.Printf("     - %s (%s)\n", p.Name, p.ID)
	}
	fmt.Printf("   Ping:    %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}
