package words

// english is the built-in English word list. It is intentionally compact:
// production deployments are expected to inject larger lists via
// custom_words on a per-room basis.
var english = []string{
	"apple", "banana", "bicycle", "bridge", "butterfly", "castle", "cloud",
	"computer", "dragon", "elephant", "firetruck", "forest", "fountain",
	"giraffe", "guitar", "hammer", "helicopter", "iceberg", "jacket",
	"kangaroo", "kitchen", "ladder", "lantern", "lighthouse", "mirror",
	"mountain", "mushroom", "necklace", "octopus", "ocean", "pencil",
	"penguin", "pyramid", "rainbow", "robot", "rocket", "sandwich",
	"scissors", "skateboard", "snowman", "spider", "submarine", "sunflower",
	"telescope", "tiger", "treasure", "umbrella", "unicorn", "volcano",
	"waterfall", "windmill", "wizard", "zebra",
}

// spanish is the built-in Spanish word list.
var spanish = []string{
	"manzana", "plátano", "bicicleta", "puente", "mariposa", "castillo",
	"nube", "computadora", "dragón", "elefante", "bombero", "bosque",
	"fuente", "jirafa", "guitarra", "martillo", "helicóptero", "iceberg",
	"chaqueta", "canguro", "cocina", "escalera", "linterna", "faro",
	"espejo", "montaña", "hongo", "collar", "pulpo", "océano", "lápiz",
	"pingüino", "pirámide", "arcoíris", "robot", "cohete", "sándwich",
	"tijeras", "patineta", "muñeco de nieve", "araña", "submarino",
	"girasol", "telescopio", "tigre", "tesoro", "paraguas", "unicornio",
	"volcán", "cascada", "molino", "mago", "cebra",
}
