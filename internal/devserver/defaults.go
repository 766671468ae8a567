package devserver

const defaultParagraphs = `
hiking|We packed the tent and walked up the ridge before the sun came up. The trail was steep but the view from the top was worth every step.

cooking|My grandmother taught me to make bread on Sunday mornings. We let the dough rise by the window while the soup cooked slowly on the stove.

gardening|The tomatoes finally turned red this week. I picked a full basket and gave half of them to the neighbors across the street.

travel|The train left the station late in the evening. We watched the small towns pass by and fell asleep before the border.
`

const defaultCorpus = `
We went hiking in the mountains last summer. The mountains were covered in snow and the trail was long.
The trail led to a lake and the lake was cold. We camped by the lake and cooked dinner over the fire.
The fire kept us warm through the night. In the morning we walked back down the trail to the car.
My grandmother made bread every Sunday. The bread was warm and the kitchen smelled of soup and fresh bread.
We cooked soup with tomatoes from the garden. The garden was full of tomatoes and beans and flowers.
The flowers in the garden attract bees in the summer. We picked tomatoes and gave them to the neighbors.
The train to the city was late. We watched the towns from the train and talked about the trip.
The trip took us to the coast where we walked on the beach and swam in the cold water.
We played music by the fire and sang songs about the mountains and the sea.
The game started late in the evening and the team played well. We watched the game with friends.
Friends came over to play cards and we cooked dinner for everyone in the kitchen.
`
