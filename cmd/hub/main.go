// Package main - точка входа Student Hub.
//
// Один бинарник: `hub serve` поднимает JSON API, остальные команды работают
// с тем же хранилищем напрямую из терминала. Каталог, список друзей и тема
// живут в одном KV-хранилище, выбранном конфигурацией.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
