package a2a

// AgentCard describes the service's capabilities per the A2A protocol.
type AgentCard struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	URL          string  `json:"url"`
	Version      string  `json:"version"`
	Skills       []Skill `json:"skills"`
	Capabilities struct {
		PushNotifications bool `json:"pushNotifications"`
		Streaming         bool `json:"streaming"`
	} `json:"capabilities"`
}

// Skill describes a single capability of the agent.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	InputModes  []string `json:"inputModes"`
	OutputModes []string `json:"outputModes"`
}

// BuildAgentCard returns the AgentCard for the RateForge service.
// Skill ids match the registered runtime and workflow names so that a
// discovering client can address them directly.
func BuildAgentCard(baseURL string, agents, workflows []string) AgentCard {
	card := AgentCard{
		Name:        "RateForge",
		Description: "Currency exchange analysis agent",
		URL:         baseURL,
		Version:     "0.1.0",
	}
	for _, name := range agents {
		card.Skills = append(card.Skills, Skill{
			ID:          name,
			Name:        name,
			Description: "Conversational currency exchange analysis",
			InputModes:  []string{"text"},
			OutputModes: []string{"text"},
		})
	}
	for _, name := range workflows {
		card.Skills = append(card.Skills, Skill{
			ID:          name,
			Name:        name,
			Description: "Structured exchange rate analysis over a currency list",
			InputModes:  []string{"data"},
			OutputModes: []string{"data", "text"},
		})
	}
	card.Capabilities.PushNotifications = true
	return card
}
