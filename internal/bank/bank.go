// Package bank holds the built-in question bank and reads bank files.
package bank

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"knowledge-quiz/internal/domain"
)

type file struct {
	Topics []domain.Topic `yaml:"topics"`
}

// LoadFile reads a YAML bank file and validates every topic in it.
func LoadFile(path string) ([]domain.Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML bank content.
func Parse(data []byte) ([]domain.Topic, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}
	if len(f.Topics) == 0 {
		return nil, fmt.Errorf("%w: bank has no topics", domain.ErrInvalidQuestion)
	}
	for _, t := range f.Topics {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Topics, nil
}

// Default returns the built-in bank: science, technology and movies, seven questions each.
func Default() []domain.Topic {
	return []domain.Topic{
		{
			ID:          "science",
			Description: "Test your knowledge of scientific concepts, natural phenomena, and discoveries",
			Questions: []domain.Question{
				{Prompt: "What is the chemical symbol for gold?", Options: []string{"Go", "Gd", "Au", "Ag"}, CorrectIndex: 2},
				{Prompt: "What is the speed of light in vacuum?", Options: []string{"300,000 km/s", "150,000 km/s", "450,000 km/s", "200,000 km/s"}, CorrectIndex: 0},
				{Prompt: "Which planet is known as the Red Planet?", Options: []string{"Venus", "Jupiter", "Mars", "Saturn"}, CorrectIndex: 2},
				{Prompt: "What is the most abundant gas in Earth's atmosphere?", Options: []string{"Oxygen", "Carbon Dioxide", "Nitrogen", "Hydrogen"}, CorrectIndex: 2},
				{Prompt: "What is the powerhouse of the cell?", Options: []string{"Nucleus", "Ribosome", "Mitochondria", "Endoplasmic Reticulum"}, CorrectIndex: 2},
				{Prompt: "What is the hardest natural substance on Earth?", Options: []string{"Gold", "Iron", "Diamond", "Platinum"}, CorrectIndex: 2},
				{Prompt: "How many bones are in the adult human body?", Options: []string{"186", "206", "226", "246"}, CorrectIndex: 1},
			},
		},
		{
			ID:          "technology",
			Description: "Explore your understanding of computing, programming, and modern technology",
			Questions: []domain.Question{
				{Prompt: "What does CPU stand for?", Options: []string{"Central Processing Unit", "Computer Personal Unit", "Central Program Utility", "Computer Processing Unit"}, CorrectIndex: 0},
				{Prompt: "Who is known as the father of computers?", Options: []string{"Alan Turing", "Charles Babbage", "Steve Jobs", "Bill Gates"}, CorrectIndex: 1},
				{Prompt: "What does HTML stand for?", Options: []string{"Hyper Text Markup Language", "High Tech Modern Language", "Home Tool Markup Language", "Hyperlinks and Text Markup Language"}, CorrectIndex: 0},
				{Prompt: "In what year was the first iPhone released?", Options: []string{"2005", "2007", "2008", "2010"}, CorrectIndex: 1},
				{Prompt: "What does HTTP stand for?", Options: []string{"HyperText Transfer Protocol", "High Transfer Text Protocol", "HyperText Transmission Protocol", "Home Text Transfer Protocol"}, CorrectIndex: 0},
				{Prompt: "Which company developed the Java programming language?", Options: []string{"Microsoft", "Apple", "Sun Microsystems", "IBM"}, CorrectIndex: 2},
				{Prompt: "What is the binary equivalent of decimal number 10?", Options: []string{"1010", "1100", "1001", "1110"}, CorrectIndex: 0},
			},
		},
		{
			ID:          "movies",
			Description: "Challenge yourself on film history, famous actors, and cinematic masterpieces",
			Questions: []domain.Question{
				{Prompt: "Who directed the movie 'Inception'?", Options: []string{"Steven Spielberg", "Christopher Nolan", "James Cameron", "Quentin Tarantino"}, CorrectIndex: 1},
				{Prompt: "Which movie won the Academy Award for Best Picture in 1994?", Options: []string{"Pulp Fiction", "The Shawshank Redemption", "Forrest Gump", "The Lion King"}, CorrectIndex: 2},
				{Prompt: "What is the highest-grossing film of all time (unadjusted for inflation)?", Options: []string{"Titanic", "Avatar", "Avengers: Endgame", "Star Wars: The Force Awakens"}, CorrectIndex: 1},
				{Prompt: "Who played Iron Man in the Marvel Cinematic Universe?", Options: []string{"Chris Evans", "Robert Downey Jr.", "Chris Hemsworth", "Mark Ruffalo"}, CorrectIndex: 1},
				{Prompt: "In which year was the first 'Jurassic Park' movie released?", Options: []string{"1991", "1993", "1995", "1997"}, CorrectIndex: 1},
				{Prompt: "Which actress played Hermione Granger in the Harry Potter series?", Options: []string{"Emma Stone", "Emma Watson", "Emily Blunt", "Emma Thompson"}, CorrectIndex: 1},
				{Prompt: "What is the name of the fictional African country in Black Panther?", Options: []string{"Zamunda", "Wakanda", "Genovia", "Latveria"}, CorrectIndex: 1},
			},
		},
	}
}
