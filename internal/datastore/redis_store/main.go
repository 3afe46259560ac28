// Package redis_store keeps the ephemeral daily proof codes. A code is
// generated once per calendar day, attached to every submission created that
// day, and expires on its own; nothing here takes part in settlement.
package redis_store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const dailyCodeTTL = 48 * time.Hour

type DailyCode struct {
	Code string    `msgpack:"code"`
	Day  string    `msgpack:"day"`
	At   time.Time `msgpack:"at"`
}

func dbKeyDailyCode(day string) string {
	return fmt.Sprintf("proof:daily_code:%s", day)
}

// GetOrCreateDailyCode returns today's proof code, minting one when the day
// rolls over. SetNX keeps concurrent mints from disagreeing.
func GetOrCreateDailyCode(ctx context.Context, client redis.UniversalClient, day string) (*DailyCode, error) {
	key := dbKeyDailyCode(day)

	raw, err := client.Get(ctx, key).Bytes()
	if err == nil {
		var code DailyCode
		if err := msgpack.Unmarshal(raw, &code); err != nil {
			return nil, err
		}
		return &code, nil
	}
	if err != redis.Nil {
		return nil, err
	}

	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}

	code := &DailyCode{
		Code: hex.EncodeToString(buf),
		Day:  day,
		At:   time.Now(),
	}

	encoded, err := msgpack.Marshal(code)
	if err != nil {
		return nil, err
	}

	ok, err := client.SetNX(ctx, key, encoded, dailyCodeTTL).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return code, nil
	}

	// lost the mint race, read the winner
	raw, err = client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var winner DailyCode
	if err := msgpack.Unmarshal(raw, &winner); err != nil {
		return nil, err
	}
	return &winner, nil
}

// GetDailyCode returns the code for a day or redis.Nil when it expired.
func GetDailyCode(ctx context.Context, client redis.UniversalClient, day string) (*DailyCode, error) {
	raw, err := client.Get(ctx, dbKeyDailyCode(day)).Bytes()
	if err != nil {
		return nil, err
	}

	var code DailyCode
	if err := msgpack.Unmarshal(raw, &code); err != nil {
		return nil, err
	}
	return &code, nil
}
