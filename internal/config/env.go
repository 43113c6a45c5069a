package config

import (
	"os"
	"strconv"
	"time"
)

// getenv lê k e converte com parse. Ausente, vazio ou inválido devolve def.
func getenv[T any](k string, def T, parse func(string) (T, error)) T {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

func asString(v string) (string, error) { return v, nil }

func asFloat(v string) (float64, error) { return strconv.ParseFloat(v, 64) }

func asInt64(v string) (int64, error) { return strconv.ParseInt(v, 10, 64) }

var (
	asInt      = strconv.Atoi
	asBool     = strconv.ParseBool
	asDuration = time.ParseDuration
)
