package ml

// Prompt is sent alongside every image. The model is asked for JSON only, in
// exactly one of two shapes.
const Prompt = `Analyze this image and identify any waste items in it.
Respond with JSON only, no markdown and no extra text, using exactly one of the two formats below.

If waste is detected:
{
	"waste_type": "type of waste, e.g. Plastic bottle",
	"quantity": integer number of waste items visible,
	"disposal_methods": ["method 1", "method 2", "method 3"],
	"mistakes_to_avoid": ["mistake 1", "mistake 2", "mistake 3"]
}

If no waste is detected:
{
	"waste_type": "No waste detected",
	"quantity": 0,
	"disposal_methods": [],
	"mistakes_to_avoid": []
}

When waste is detected, disposal_methods and mistakes_to_avoid must each contain exactly 3 short entries.`

// jsonMIMEType constrains the model's reply format
const jsonMIMEType = "application/json"
