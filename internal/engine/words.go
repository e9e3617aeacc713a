package engine

// Words is the prompt bank. Prompts are drawn uniformly and may repeat
// across rounds.
var Words = []string{
	"apple", "balloon", "cat", "robot", "flower", "spaceship", "treehouse", "sun",
	"moon", "castle", "elephant", "ice cream truck", "book", "paintbrush", "frog",
	"jellyfish", "pencil", "mountain", "cloud", "fox", "donut", "pirate ship",
	"ghost", "squirrel", "bubble tea", "cake", "penguin", "mermaid", "giant snail",
	"skyscraper", "hotdog", "pizza planet", "witch's broom", "giraffe",
	"time machine", "chair", "lighthouse", "bicycle", "glasses", "ice dragon",
	"spaceship taco", "superhero", "monster", "vampire", "zombie", "treasure map",
	"umbrella", "star", "rainbow", "butterfly", "bottle", "moon rabbit", "robot dog",
	"sandcastle", "mirror", "stormy sky", "glowing fish", "candy castle",
	"sock monster", "bee", "dolphin", "campfire", "cactus", "ball pit",
	"tiny planet", "glowing mushroom", "suitcase", "moon base", "turtle",
	"lava lamp", "banana", "orange", "crayon", "dream library", "floating book",
	"giant flower", "tiny witch", "popsicle", "owl", "sushi", "starfish",
	"popcorn", "flying whale", "tornado", "magic mirror", "volcano", "cyborg cat",
	"robot bakery", "camera", "lantern", "magic bubble", "sloth astronaut",
	"cloud city", "storm dragon", "tiny knight", "paint splash", "firefly swarm",
	"neon jellyfish", "cow", "spoon", "globe", "backpack", "skeleton pirate",
	"floating tea set", "paper airplane", "bunny wizard", "magic wand",
	"portal door", "ninja", "rain boots", "toothbrush", "fence", "dream cloud",
	"bubble snail", "ferris wheel", "guitar", "drum", "sock dragon",
	"cherry blossom fox", "lava turtle", "rocket", "firetruck", "peach", "tree",
	"mirror lake", "origami crane", "bean creature", "flying car", "crystal cave",
	"glitchy robot", "kite", "leaf boat", "violin", "pirate", "steampunk cat",
	"robot painter", "tiny explorer",
}
