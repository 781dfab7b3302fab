package synthesis

// overviewPrompt is the instruction template for topic overview
// generation. The placeholders are the topic title and description.
const overviewPrompt = `Act as an expert technical writer.
Generate a detailed introductory overview for the topic: "%s".
Context: %s

Requirements:
1. Provide a clear definition.
2. Explain 3-4 key concepts or components.
3. Discuss typical use cases.
4. Keep the tone professional but accessible.
5. Length: ~500 words.`
