// push-location：从命令行提交一次签到到位置接收服务
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"geocontacts/internal/config"
	"geocontacts/internal/geo"
	"geocontacts/internal/locationpush"
	"geocontacts/internal/logger"
)

func main() {
	envFile := flag.String("env", ".env", "env file to load")
	lat := flag.Float64("lat", 0, "latitude")
	lon := flag.Float64("lon", 0, "longitude")
	mood := flag.String("mood", "", "optional mood")
	country := flag.String("country", "", "ISO country code")
	state := flag.String("state", "", "admin area")
	town := flag.String("town", "", "locality")
	upn := flag.String("upn", "", "user principal name (default PUSH_UPN)")
	flag.Parse()

	_ = godotenv.Load(*envFile)
	l := logger.Setup()
	cfg, err := config.Load()
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	who := cfg.Push.UPN
	if *upn != "" {
		who = *upn
	}
	pos := geo.NewPoint(*lon, *lat)
	if who == "" || !pos.Valid() {
		fmt.Fprintln(os.Stderr, "usage: push-location -upn <upn> -lat <lat> -lon <lon> [-mood m] [-country c -state s -town t]")
		os.Exit(2)
	}
	var addr *locationpush.Address
	if *country != "" || *state != "" || *town != "" {
		addr = &locationpush.Address{CountryCode: *country, AdminArea: *state, Locality: *town}
	}

	c := locationpush.NewClient(cfg.Push.Endpoint, who, nil)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Push.Timeout)
	defer cancel()
	u, err := c.Submit(ctx, pos, addr, *mood, cfg.Push.Token)
	if err != nil {
		l.Error("push_error", "err", err)
		os.Exit(1)
	}
	fmt.Println("submitted", u.ID, "at", u.InsertTime.Format("2006-01-02T15:04:05Z07:00"))
}
