// Package questions loads the trivia bank and deals questions to the engine.
//
// A Bank is the immutable, ID-ordered list of questions parsed from a JSON
// file. Options may carry a leading "A. " style label, which is stripped, and
// the correct answer is given either as a letter or as a zero-based index.
// Questions without an explicit stage are assigned one from their ID, ten
// questions per stage.
//
// A Deck walks the bank for one game. In sequential mode it hands out the
// questions in order and wraps around at the end. In stage mode it hands out
// the next question tagged with the team's current stage, falling back to
// sequential order when the stage has none. The deck cursor is exposed so a
// session can persist and restore its position.
package questions
