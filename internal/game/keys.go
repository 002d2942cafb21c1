package game

import "strings"

// keyDirections maps key names from browsers (KeyboardEvent.key), WASD and
// plain words onto directions.
var keyDirections = map[string]Direction{
	"arrowup":    Up,
	"arrowdown":  Down,
	"arrowleft":  Left,
	"arrowright": Right,
	"up":         Up,
	"down":       Down,
	"left":       Left,
	"right":      Right,
	"w":          Up,
	"s":          Down,
	"a":          Left,
	"d":          Right,
}

// KeyDirection resolves a key name. Any other key reports false.
func KeyDirection(key string) (Direction, bool) {
	d, ok := keyDirections[strings.ToLower(strings.TrimSpace(key))]
	return d, ok
}
