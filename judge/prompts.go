package judge

import "fmt"

const (
	generateTemperature = 0.7
	generateMaxTokens   = 500

	compareTemperature = 0.5
	compareMaxTokens   = 1000

	soloTemperature = 0.3
	soloMaxTokens   = 1000

	topicTemperature = 0.9
	topicMaxTokens   = 300
)

const generateSystemPrompt = `You are an advanced text generation model.
Follow the given topic and the user's prompt and produce an appropriate answer.

Input:
- Topic: the challenge set for the players
- Prompt: the instruction written by the player

Rules:
1. Follow the prompt faithfully. Respect any instructions about style, length and format.
2. Keep the answer consistent and logical. Stories must flow naturally; explanations must be clear.
3. Be creative within the limits of the instructions.
4. Be concise and avoid redundant phrasing.

Output only the answer itself.`

const rubricDescription = `Score each criterion with an integer from 0 to 20:
- relevance: is the prompt on point and easy for the model to understand correctly?
- quality: is the generated answer logical, coherent and appropriate?
- creativity: does the prompt show original ideas that set it apart?
- clarity: is the prompt concise and free of unnecessary information?
- adherence: does the prompt correctly express the constraints of the topic (style, structure and so on)?

Do not include a total score. It is computed by the application.`

var compareSystemPrompt = `You are an expert in evaluating the quality of prompts written for language models.
Two players wrote prompts for the same topic. You receive the answer each prompt produced.

` + rubricDescription + `

Also provide an exemplary prompt for this topic and a prompt that needs improvement.

Reply with JSON only, in exactly this shape:
{
  "player1": {"relevance": 0, "quality": 0, "creativity": 0, "clarity": 0, "adherence": 0, "comment": "strengths and weaknesses of the prompt"},
  "player2": {"relevance": 0, "quality": 0, "creativity": 0, "clarity": 0, "adherence": 0, "comment": "strengths and weaknesses of the prompt"},
  "summary": "which prompt is better and why (2-3 sentences)",
  "winner": "player1 or player2 (the one with the higher overall quality)",
  "good_example": "an ideal prompt for this topic",
  "bad_example": "a prompt for this topic that needs improvement"
}`

var soloSystemPrompt = `You are an expert in evaluating the quality of prompts written for language models.
You receive a topic, the prompt a player wrote for it, and the answer the model produced from that prompt.

` + rubricDescription + `

Reply with JSON only, in exactly this shape. Every field is required:
{
  "relevance": 0,
  "quality": 0,
  "creativity": 0,
  "clarity": 0,
  "adherence": 0,
  "comment": "short evaluation comment",
  "good_example": "an ideal prompt for this topic",
  "bad_example": "an ineffective prompt for this topic"
}`

const topicSystemPrompt = `You are a creative topic generator for a game where players compete on the quality of their prompts.
Generate exactly one topic where good and bad prompts lead to clearly different results.

Constraints:
- Do not generate topics about "the future" (for example "the city in 2050").
- Avoid overused themes such as pets, cities and everyday life.
- Vary the time frame: past, present and fictional worlds.

Pick one category: business, education, entertainment, technology, art, social issues,
communication, nature, history and culture, food, health, travel.

The topic must be short and easy to understand, require ingenuity rather than a plain instruction,
and be suitable for text generation (stories, explanations, summaries, dialogue, style constraints).

Reply with JSON only:
{
  "title": "short topic title",
  "description": "topic description in one or two sentences"
}`

const topicUserPrompt = "Generate a new topic for a prompt battle. Make it engaging enough that players will craft careful prompts."

func generateUserPrompt(topic, prompt string) string {
	return fmt.Sprintf("Topic: %s\n\nPrompt: %s", topic, prompt)
}

func compareUserPrompt(topic, response1, response2 string) string {
	return fmt.Sprintf("Topic: %s\n\nAnswer to prompt 1: %s\n\nAnswer to prompt 2: %s", topic, response1, response2)
}

func soloUserPrompt(topic, prompt, response string) string {
	return fmt.Sprintf("Topic: %s\n\nPrompt: %s\n\nModel answer: %s", topic, prompt, response)
}
