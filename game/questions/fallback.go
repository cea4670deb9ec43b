package questions

import "github.com/wricardo/mcp-training/triviarace/game/engine"

// Fallback returns the small built-in bank used when no bank file exists
func Fallback() *Bank {
	return NewBank([]engine.Question{
		{ID: 1, Stage: 1, Text: "How many faces does a standard die have?", Options: []string{"4", "6", "8", "12"}, CorrectIndex: 1},
		{ID: 2, Stage: 1, Text: "Which planet is closest to the Sun?", Options: []string{"Venus", "Earth", "Mercury", "Mars"}, CorrectIndex: 2},
		{ID: 3, Stage: 1, Text: "What is the boiling point of water at sea level in Celsius?", Options: []string{"90", "100", "110", "120"}, CorrectIndex: 1},
		{ID: 4, Stage: 1, Text: "Which ocean is the largest?", Options: []string{"Pacific", "Atlantic", "Indian", "Arctic"}, CorrectIndex: 0},
		{ID: 5, Stage: 1, Text: "How many minutes are in a day?", Options: []string{"1240", "1340", "1440", "1540"}, CorrectIndex: 2},
		{ID: 6, Stage: 1, Text: "Which gas do plants absorb from the air?", Options: []string{"Oxygen", "Nitrogen", "Helium", "Carbon dioxide"}, CorrectIndex: 3},
		{ID: 7, Stage: 1, Text: "What is the longest river in Asia?", Options: []string{"Mekong", "Yangtze", "Ganges", "Indus"}, CorrectIndex: 1},
		{ID: 8, Stage: 1, Text: "How many sides does a hexagon have?", Options: []string{"5", "6", "7", "8"}, CorrectIndex: 1},
		{ID: 9, Stage: 1, Text: "Which metal is liquid at room temperature?", Options: []string{"Mercury", "Lead", "Tin", "Zinc"}, CorrectIndex: 0},
		{ID: 10, Stage: 1, Text: "What is 12 multiplied by 12?", Options: []string{"124", "132", "144", "156"}, CorrectIndex: 2},
	})
}
