//go:build sqlite_vec && cgo

package storage

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

func init() {
	vec.Auto()
}
