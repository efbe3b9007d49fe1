package games

// TriviaQuestion is one entry in the trivia/quiz bank
type TriviaQuestion struct {
	Question string
	Answer   string
	Category string
}

var triviaBank = []TriviaQuestion{
	{"What year was the first version of Go released?", "2009", "code"},
	{"What does HTTP stand for?", "hypertext transfer protocol", "code"},
	{"What is the default port for HTTPS?", "443", "code"},
	{"Which planet is known as the Red Planet?", "mars", "general"},
	{"What is the largest ocean on Earth?", "pacific", "general"},
	{"How many bits are in a byte?", "8", "code"},
	{"What does CPU stand for?", "central processing unit", "code"},
	{"Which language is Discord's desktop client primarily built with?", "javascript", "code"},
	{"What is the chemical symbol for gold?", "au", "general"},
	{"How many continents are there?", "7", "general"},
	{"What company created the Go programming language?", "google", "code"},
	{"What is the capital of Japan?", "tokyo", "general"},
	{"What does JSON stand for?", "javascript object notation", "code"},
	{"Which data structure works first-in-first-out?", "queue", "code"},
	{"What is the square root of 144?", "12", "general"},
}

var wordBank = []string{
	"python",
	"golang",
	"discord",
	"channel",
	"gateway",
	"keyboard",
	"parrot",
	"community",
	"message",
	"trivia",
	"backend",
	"server",
	"moderator",
	"emoji",
	"stream",
	"hangman",
	"scramble",
	"leaderboard",
	"function",
	"variable",
}
